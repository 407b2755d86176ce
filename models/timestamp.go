package models

import (
	"encoding/json"
	"time"
)

// pocketbaseLayout is how PocketBase date fields serialize.
const pocketbaseLayout = "2006-01-02 15:04:05.000Z"

// Timestamp is a UTC instant stored as an RFC 3339 string. Empty strings
// decode to the zero value.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp accepts RFC 3339 (with or without fractional seconds) and
// the PocketBase layout.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		var pbErr error
		if t, pbErr = time.Parse(pocketbaseLayout, s); pbErr != nil {
			return Timestamp{}, err
		}
	}
	return NewTimestamp(t), nil
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
