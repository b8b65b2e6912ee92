// Package trip defines the travel-plan data model shared by the generation
// agents, the checker and the pipeline.
package trip

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on every boundary.
const DateLayout = "2006-01-02"

// ErrInvalidRequest is returned when a trip request fails validation.
var ErrInvalidRequest = errors.New("invalid trip request")

// Date is a calendar date that encodes as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Request is one planning session's input. It is passed by value and never
// modified after NewRequest returns it.
type Request struct {
	OriginCity      string  `json:"origin_city"`
	DestinationCity string  `json:"destination_city"`
	CheckIn         Date    `json:"check_in_date"`
	CheckOut        Date    `json:"check_out_date"`
	Travelers       int     `json:"num_people"`
	Budget          float64 `json:"total_budget"`
}

// NewRequest validates its input and builds a Request.
func NewRequest(origin, destination, checkIn, checkOut string, travelers int, budget float64) (Request, error) {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)

	if origin == "" {
		return Request{}, fmt.Errorf("%w: origin city is required", ErrInvalidRequest)
	}
	if destination == "" {
		return Request{}, fmt.Errorf("%w: destination city is required", ErrInvalidRequest)
	}

	in, err := ParseDate(checkIn)
	if err != nil {
		return Request{}, fmt.Errorf("%w: check-in date must be YYYY-MM-DD, got %q", ErrInvalidRequest, checkIn)
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return Request{}, fmt.Errorf("%w: check-out date must be YYYY-MM-DD, got %q", ErrInvalidRequest, checkOut)
	}
	if !out.After(in.Time) {
		return Request{}, fmt.Errorf("%w: check-out date must be after check-in date", ErrInvalidRequest)
	}

	if travelers <= 0 {
		return Request{}, fmt.Errorf("%w: number of travelers must be greater than 0", ErrInvalidRequest)
	}
	if budget <= 0 {
		return Request{}, fmt.Errorf("%w: total budget must be greater than 0", ErrInvalidRequest)
	}

	return Request{
		OriginCity:      origin,
		DestinationCity: destination,
		CheckIn:         in,
		CheckOut:        out,
		Travelers:       travelers,
		Budget:          budget,
	}, nil
}

// Nights is the number of hotel nights between check-in and check-out.
func (r Request) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn.Time).Hours() / 24)
}
