package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusArchived  FlightStatus = "ARCHIVED"
)

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "ECONOMY"
	SeatClassBusiness SeatClass = "BUSINESS"
	SeatClassFirst    SeatClass = "FIRST"
)

func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassEconomy, SeatClassBusiness, SeatClassFirst:
		return true
	}
	return false
}

type Flight struct {
	ID            int64        `json:"id"`
	FlightNumber  string       `json:"flight_number"`
	FromAirport   string       `json:"from_airport"`
	ToAirport     string       `json:"to_airport"`
	DepartureTime time.Time    `json:"departure_time"`
	ArrivalTime   time.Time    `json:"arrival_time"`
	Currency      string       `json:"currency"`
	Status        FlightStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Departed reports whether the flight has left at instant now.
func (f Flight) Departed(now time.Time) bool {
	return !f.DepartureTime.IsZero() && !now.Before(f.DepartureTime)
}

// FlightInventory is the seat ledger for one flight and seat class.
// Held+Confirmed never exceeds Total.
type FlightInventory struct {
	FlightID  int64     `json:"flight_id"`
	Class     SeatClass `json:"class"`
	Total     int       `json:"total"`
	Held      int       `json:"held"`
	Confirmed int       `json:"confirmed"`
	Fare      int64     `json:"fare"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i FlightInventory) Available() int {
	return i.Total - i.Held - i.Confirmed
}

func (i FlightInventory) Validate() error {
	if !i.Class.Valid() {
		return ErrInvalidInput
	}
	if i.Total < 0 || i.Held < 0 || i.Confirmed < 0 || i.Fare < 0 {
		return ErrInvalidInput
	}
	if i.Held+i.Confirmed > i.Total {
		return ErrCapacityExceeded
	}
	return nil
}

// Reservation is returned by a successful ledger reserve.
type Reservation struct {
	Token     string    `json:"token"`
	FlightID  int64     `json:"flight_id"`
	Class     SeatClass `json:"class"`
	Quantity  int       `json:"quantity"`
	Remaining int       `json:"remaining"`
}
