package domain

import "time"

// Driver is a person who drives trips.
type Driver struct {
	ID        string
	Name      string
	Mobile    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Vehicle is a car of some category, optionally linked to its usual driver.
type Vehicle struct {
	ID        string
	Name      string
	Number    string
	Category  string
	DriverID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
