package evescout

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Signature is one record of the public signatures endpoint.
// Only the fields the normalizer reads are declared.
type Signature struct {
	ID             FlexID     `json:"id"`
	WormholeType   string     `json:"wh_type"`
	MaxShipSize    string     `json:"max_ship_size"`
	RemainingHours *float64   `json:"remaining_hours"`
	ExpiresAt      *time.Time `json:"expires_at"`
	ExitsOutward   bool       `json:"wh_exits_outward"`

	OutSystemID   int64  `json:"out_system_id"`
	OutSystemName string `json:"out_system_name"`
	OutSignature  string `json:"out_signature"`

	InSystemID    int64  `json:"in_system_id"`
	InSystemName  string `json:"in_system_name"`
	InSystemClass string `json:"in_system_class"`
	InRegionName  string `json:"in_region_name"`
	InSignature   string `json:"in_signature"`
}

// FlexID decodes an identifier the feed may send as a string or a number.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(string(n), 64); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}
