package domain

import (
	"regexp"
	"strings"
	"time"
)

// VehicleCategory groups vehicles sharing a tariff.
type VehicleCategory struct {
	ID               string
	Name             string
	Description      string
	TariffPerKM      int64
	TariffAfterHours int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Rate prices a route for one vehicle category.
type Rate struct {
	ID              string
	Source          string
	Destination     string
	Code            string
	VehicleCategory string

	OnewayPrice        int64
	OnewayDistance     int64
	OnewayDriverCharge int64

	RoundTripPrice        int64
	RoundTripDistance     int64
	RoundTripDriverCharge int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplyDefaults fills the route code and defaults the round-trip columns to
// twice the one-way values when they were not set explicitly.
func (r *Rate) ApplyDefaults() {
	r.Code = RouteCode(r.Source, r.Destination)
	if r.RoundTripPrice == 0 {
		r.RoundTripPrice = 2 * r.OnewayPrice
	}
	if r.RoundTripDistance == 0 {
		r.RoundTripDistance = 2 * r.OnewayDistance
	}
	if r.RoundTripDriverCharge == 0 {
		r.RoundTripDriverCharge = 2 * r.OnewayDriverCharge
	}
}

// Price returns the base price, distance and driver charge for a trip type.
func (r *Rate) Price(t BookingType) (price, distance, driverCharge int64) {
	if t == BookingTypeRoundTrip {
		return r.RoundTripPrice, r.RoundTripDistance, r.RoundTripDriverCharge
	}
	return r.OnewayPrice, r.OnewayDistance, r.OnewayDriverCharge
}

var routeCodeSep = regexp.MustCompile(`[^A-Z0-9]+`)

// RouteCode canonicalizes a source/destination pair into the key used for
// rate lookups.
func RouteCode(source, destination string) string {
	canon := func(s string) string {
		s = strings.ToUpper(strings.TrimSpace(s))
		return strings.Trim(routeCodeSep.ReplaceAllString(s, "-"), "-")
	}
	return canon(source) + ":" + canon(destination)
}
