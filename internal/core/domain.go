package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Text is a free-text field coming from the API. Only JSON strings carry
	// a value; null, numbers and objects decode to "".
	Text string

	// ClientRef is the client object some API versions embed in a trip.
	ClientRef struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Trip struct {
		ID              int64           `json:"id"`
		ClientID        *int64          `json:"client_id"`
		DriverID        *int64          `json:"driver_id"`
		Client          *ClientRef      `json:"client,omitempty"`
		Origin          string          `json:"origin"`
		Destination     string          `json:"destination"`
		StartDate       string          `json:"start_date"`
		Rate            decimal.Decimal `json:"rate"`
		EstimatedKms    decimal.Decimal `json:"estimated_kms"`
		CalculatedPerKm bool            `json:"calculated_per_km"`
		StateID         Text            `json:"state_id"`
	}

	Expense struct {
		ID          int64           `json:"id"`
		TripID      *int64          `json:"trip_id"`
		DriverID    *int64          `json:"driver_id"`
		Date        string          `json:"date"`
		Amount      decimal.Decimal `json:"amount"`
		ExpenseType Text            `json:"expense_type"`
	}

	AdvancePayment struct {
		ID       int64           `json:"id"`
		DriverID *int64          `json:"driver_id"`
		Date     string          `json:"date"`
		Amount   decimal.Decimal `json:"amount"`
	}

	Driver struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Active  bool   `json:"active"`
	}

	Truck struct {
		ID             int64  `json:"id"`
		Plate          string `json:"plate"`
		Operational    bool   `json:"operational"`
		ServiceDueDate string `json:"service_due_date"`
		VTVDueDate     string `json:"vtv_due_date"`
		PlateDueDate   string `json:"plate_due_date"`
	}

	Client struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
)

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = ""
	}
	return nil
}

// String returns the text trimmed of surrounding whitespace.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Start is the parsed start date of the trip.
func (t Trip) Start() Date {
	return ParseDate(t.StartDate)
}

// Route renders "origin - destination".
func (t Trip) Route() string {
	return strings.TrimSpace(t.Origin + " - " + t.Destination)
}

// When is the parsed expense date.
func (e Expense) When() Date {
	return ParseDate(e.Date)
}

// When is the parsed advance date.
func (a AdvancePayment) When() Date {
	return ParseDate(a.Date)
}

// FullName joins name and surname.
func (d Driver) FullName() string {
	return strings.TrimSpace(d.Name + " " + d.Surname)
}
