package trip

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// Degree is a latitude or longitude as it arrived from upstream data. Model
// output carries coordinates both as numbers and as numeric strings, so the
// raw token is kept and parsed on demand. The zero value means "absent".
type Degree struct {
	raw json.RawMessage
}

// DegreeOf wraps a numeric coordinate component.
func DegreeOf(v float64) Degree {
	return Degree{raw: json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64))}
}

// RawDegree wraps an unparsed string value, e.g. "47.6062".
func RawDegree(s string) Degree {
	b, _ := json.Marshal(s)
	return Degree{raw: b}
}

// IsZero reports whether the value is absent.
func (d Degree) IsZero() bool {
	return len(d.raw) == 0
}

// Float parses the degree. ok is false when it is absent, unparsable or not finite.
func (d Degree) Float() (v float64, ok bool) {
	if d.IsZero() {
		return 0, false
	}

	text := string(d.raw)
	if d.raw[0] == '"' {
		if err := json.Unmarshal(d.raw, &text); err != nil {
			return 0, false
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (d Degree) String() string {
	if d.IsZero() {
		return ""
	}
	return string(d.raw)
}

func (d *Degree) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		d.raw = nil
		return nil
	}
	d.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (d Degree) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return jsonNull, nil
	}
	return d.raw, nil
}

var amountPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// ParseAmount extracts the first decimal number from a display price such as
// "$1,234.50" or "118 USD".
func ParseAmount(raw string) (float64, bool) {
	m := amountPattern.FindString(strings.ReplaceAll(raw, ",", ""))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Amount is a currency amount. It decodes from a number or from a display
// string; a string without any digits decodes to NaN so that consumers can
// tell "unknown" apart from "free".
type Amount float64

// Valid reports whether the amount is a finite number.
func (a Amount) Valid() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*a = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, ok := ParseAmount(s)
		if !ok {
			*a = Amount(math.NaN())
			return nil
		}
		*a = Amount(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return jsonNull, nil
	}
	return []byte(strconv.FormatFloat(float64(a), 'f', -1, 64)), nil
}
