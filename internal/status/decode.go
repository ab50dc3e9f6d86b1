package status

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrNotObject is returned when a payload is valid JSON but not an object.
var ErrNotObject = errors.New("status payload is not a JSON object")

// Decode parses a status payload and validates its shape.
func Decode(data []byte) (Snapshot, error) {
	var snap *Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode status payload: %w", err)
	}

	if snap == nil {
		return Snapshot{}, ErrNotObject
	}

	if err := snap.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("invalid status payload: %w", err)
	}

	return *snap, nil
}

// Encode renders a snapshot with the indentation used by the status file.
func Encode(snap Snapshot) ([]byte, error) {
	if snap.AllResults == nil {
		snap.AllResults = []ProxyResult{}
	}
	return json.MarshalIndent(snap, "", "    ")
}
