package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ai-travel-planner/internal/trip"
)

// ErrCancelled is returned when the user declines the confirmation prompt.
var ErrCancelled = errors.New("cancelled by user")

// Prompter reads a trip request from a console.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) required(question, field string) (string, error) {
	answer, err := p.ask(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", trip.ErrInvalidRequest, field)
	}
	return answer, nil
}

// AskRequest prompts for every request field, validating as it goes.
func (p *Prompter) AskRequest() (trip.Request, error) {
	fmt.Fprintln(p.out, strings.Repeat("=", 60))
	fmt.Fprintln(p.out, "Welcome to the travel planner!")
	fmt.Fprintln(p.out, strings.Repeat("=", 60))

	origin, err := p.required("Origin city (e.g. Seattle): ", "origin city")
	if err != nil {
		return trip.Request{}, err
	}
	destination, err := p.required("Destination city (e.g. New York): ", "destination city")
	if err != nil {
		return trip.Request{}, err
	}

	checkIn, err := p.required("Check-in date (YYYY-MM-DD, e.g. 2026-01-10): ", "check-in date")
	if err != nil {
		return trip.Request{}, err
	}
	if _, err := trip.ParseDate(checkIn); err != nil {
		return trip.Request{}, fmt.Errorf("%w: check-in date must be YYYY-MM-DD, e.g. 2026-01-10", trip.ErrInvalidRequest)
	}

	checkOut, err := p.required("Check-out date (YYYY-MM-DD, e.g. 2026-01-15): ", "check-out date")
	if err != nil {
		return trip.Request{}, err
	}
	if _, err := trip.ParseDate(checkOut); err != nil {
		return trip.Request{}, fmt.Errorf("%w: check-out date must be YYYY-MM-DD, e.g. 2026-01-15", trip.ErrInvalidRequest)
	}

	peopleRaw, err := p.required("Number of travelers (e.g. 2): ", "number of travelers")
	if err != nil {
		return trip.Request{}, err
	}
	people, err := strconv.Atoi(peopleRaw)
	if err != nil || people <= 0 {
		return trip.Request{}, fmt.Errorf("%w: number of travelers must be a positive integer, got %q", trip.ErrInvalidRequest, peopleRaw)
	}

	budgetRaw, err := p.required("Total budget in USD (e.g. 2000): ", "total budget")
	if err != nil {
		return trip.Request{}, err
	}
	budget, err := strconv.ParseFloat(budgetRaw, 64)
	if err != nil || budget <= 0 {
		return trip.Request{}, fmt.Errorf("%w: total budget must be a positive number, got %q", trip.ErrInvalidRequest, budgetRaw)
	}

	return trip.NewRequest(origin, destination, checkIn, checkOut, people, budget)
}

// Confirm asks a yes/no question. An empty answer picks def.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	answer, err := p.ask(question)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return def, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
