package search

import (
	"bytes"
	"encoding/csv"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/jszwec/csvutil"
)

//go:embed airports.csv
var airportsCSV []byte

// Airport maps a city to its main airport.
type Airport struct {
	City string `csv:"city"`
	IATA string `csv:"iata"`
	ICAO string `csv:"icao"`
}

var (
	airportsOnce sync.Once
	airportIndex map[string]Airport
	airportsErr  error
)

// ParseAirports decodes an airport table with a city,iata,icao header.
func ParseAirports(data []byte) ([]Airport, error) {
	decoder, err := csvutil.NewDecoder(csv.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder for airports: %w", err)
	}

	var airports []Airport
	if err := decoder.Decode(&airports); err != nil {
		return nil, fmt.Errorf("failed to decode airports CSV data: %w", err)
	}
	return airports, nil
}

func loadAirports() {
	airports, err := ParseAirports(airportsCSV)
	if err != nil {
		airportsErr = err
		return
	}
	airportIndex = make(map[string]Airport, len(airports))
	for _, a := range airports {
		airportIndex[cityKey(a.City)] = a
	}
}

// AirportFor resolves a city name ("Seattle", "seattle, wa") or an airport
// code ("SEA", "KSEA") to a three-letter IATA code.
func AirportFor(city string) (string, error) {
	airportsOnce.Do(loadAirports)
	if airportsErr != nil {
		return "", airportsErr
	}

	if a, ok := airportIndex[cityKey(city)]; ok {
		return a.IATA, nil
	}

	code := strings.ToUpper(strings.TrimSpace(city))
	if isAirportCode(code) {
		return NormalizeAirportCode(code), nil
	}
	return "", fmt.Errorf("no airport known for %q", city)
}

// NormalizeAirportCode converts 4-letter US ICAO codes (e.g. "KJFK") to
// 3-letter IATA codes ("JFK"). Other codes are returned upper-cased.
func NormalizeAirportCode(code string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if len(upper) == 4 && strings.HasPrefix(upper, "K") {
		return upper[1:]
	}
	return upper
}

func cityKey(city string) string {
	city = strings.TrimSpace(city)
	if i := strings.Index(city, ","); i >= 0 {
		city = city[:i]
	}
	return strings.ToLower(strings.TrimSpace(city))
}

func isAirportCode(s string) bool {
	if len(s) != 3 && len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
