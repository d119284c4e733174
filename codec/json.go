package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option: grid results are plain numeric slices and
// ints, which JSON handles without surprises. Use it when the lowest
// dependency surface matters more than encode throughput.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: This affects newly-written cache entries only. Existing entries are
// self-describing (they store the codec name in their frame header) and are
// decoded by selecting the appropriate codec by name.
var Default Codec = GoJSON{}
