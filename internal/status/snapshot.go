package status

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TimeLayout is the format of Snapshot.LastUpdate.
const TimeLayout = "2006-01-02 15:04:05"

const (
	StatusOK = "ok"
	// StatusSlow marks a proxy that answered but slower than the acceptable threshold.
	StatusSlow = "slow"
	// ErrorPrefix starts every status string that denotes a failed probe.
	ErrorPrefix = "error"
)

// Snapshot is one status payload describing all known proxies and the
// currently preferred one.
type Snapshot struct {
	LastUpdate *string       `json:"last_update"`
	BestProxy  *ProxyResult  `json:"best_proxy"`
	AllResults []ProxyResult `json:"all_results"`
}

// ProxyResult is the outcome of probing a single proxy.
type ProxyResult struct {
	URL       string  `json:"url"`
	Status    string  `json:"status"`
	Delay     Delay   `json:"delay"`
	Error     string  `json:"error,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// Validate checks that every result carries a status.
func (s Snapshot) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.AllResults),
	)
}

// Validate implements validation.Validatable.
func (r ProxyResult) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required),
	)
}

// IsError reports whether the status denotes a failed probe.
func (r ProxyResult) IsError() bool {
	return strings.HasPrefix(r.Status, ErrorPrefix)
}

// BestURL returns the URL of the best proxy, or "" when there is none.
func (s Snapshot) BestURL() string {
	if s.BestProxy == nil {
		return ""
	}
	return s.BestProxy.URL
}

// Stamp sets LastUpdate from t.
func (s *Snapshot) Stamp(t time.Time) {
	ts := t.Format(TimeLayout)
	s.LastUpdate = &ts
}

// Delay is an optional latency value. Numbers are kept in their shortest
// decimal form (42.0 becomes 42, 1e2 becomes 100); strings are kept
// verbatim.
type Delay struct {
	text   string
	valid  bool
	quoted bool
}

// Millis returns a Delay of ms milliseconds.
func Millis(ms int64) Delay {
	return Delay{text: strconv.FormatInt(ms, 10), valid: true}
}

// Valid reports whether a delay value is present.
func (d Delay) Valid() bool {
	return d.valid
}

// String returns the display text of the delay, or "" when absent.
func (d Delay) String() string {
	return d.text
}

// Millis returns the delay as a number of milliseconds.
func (d Delay) Millis() (float64, bool) {
	if !d.valid {
		return 0, false
	}
	v, err := strconv.ParseFloat(d.text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MarshalJSON implements the json.Marshaler interface.
func (d Delay) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	if d.quoted {
		return json.Marshal(d.text)
	}
	return []byte(d.text), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// Numbers and strings are accepted; null means no delay.
func (d *Delay) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*d = Delay{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Delay{text: s, valid: true, quoted: true}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("delay must be a number or a string, got %s", data)
		}
		v, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return fmt.Errorf("delay %s is out of range: %w", data, err)
		}
		*d = Delay{text: strconv.FormatFloat(v, 'f', -1, 64), valid: true}
	}

	return nil
}
