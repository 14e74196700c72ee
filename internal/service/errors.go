package service

import "errors"

var (
	// ErrContactRequired is returned when a booking has neither a customer
	// mobile nor an email.
	ErrContactRequired = errors.New("at least one of customer mobile or email is required")

	// ErrInvalidRoute is returned when source or destination is empty.
	ErrInvalidRoute = errors.New("source and destination are required")

	// ErrRateNotFound is returned when no rate matches the route and
	// vehicle category. Fatal to booking creation.
	ErrRateNotFound = errors.New("no rate for route and vehicle category")

	// ErrInvalidPNR is returned when a booking PNR is empty.
	ErrInvalidPNR = errors.New("invalid booking pnr")

	// ErrInvalidInvoiceID is returned when a payment invoice id is empty.
	ErrInvalidInvoiceID = errors.New("invalid invoice id")

	// ErrInvalidAmount is returned when a payment amount is not positive.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrInvalidPaymentMode is returned when the payment mode is not one
	// staff may record directly.
	ErrInvalidPaymentMode = errors.New("invalid payment mode")

	// ErrInvalidPaymentType is returned when the payment type is neither
	// income nor expenditure.
	ErrInvalidPaymentType = errors.New("invalid payment type")

	// ErrGatewayPaymentImmutable is returned when staff try to edit the
	// financial fields of a gateway-tracked payment.
	ErrGatewayPaymentImmutable = errors.New("gateway payment amount and mode are managed by the gateway")

	// ErrBookingBusy is returned when the per-booking reconcile lock is
	// held by a concurrent payment write.
	ErrBookingBusy = errors.New("booking is being updated, retry")

	// ErrNoDriverAssigned is returned when a payout is requested for a
	// booking without a driver.
	ErrNoDriverAssigned = errors.New("no driver assigned to booking")

	// ErrNoDriverCharge is returned when the fare breakdown carries no
	// driver charge to pay out.
	ErrNoDriverCharge = errors.New("booking fare has no driver charge")

	// ErrPermissionDenied is returned when accounts verification is
	// attempted without the verify-payment permission.
	ErrPermissionDenied = errors.New("verify-payment permission required")

	// ErrInvalidCategory is returned when a vehicle category name is empty.
	ErrInvalidCategory = errors.New("vehicle category name is required")

	// ErrInvalidDriver is returned when driver details fail validation.
	ErrInvalidDriver = errors.New("driver name and mobile are required")

	// ErrInvalidVehicle is returned when vehicle details fail validation.
	ErrInvalidVehicle = errors.New("vehicle name and number are required")
)
