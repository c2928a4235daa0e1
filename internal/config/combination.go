package config

import (
	"encoding/json"
	"fmt"
)

// Combination holds a protocol's adversarial strategy vector. The wire
// format is a single string for Alg23 and a fixed-length string array for
// Bracha/Alg24/COOL; this type accepts either shape so one Config struct
// can decode every protocol's document.
type Combination []string

// UnmarshalJSON accepts either a bare JSON string ("opposite") or a JSON
// array of strings (["same","silent","opposite"]).
func (c *Combination) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = Combination{single}
		return nil
	}

	var multi []string
	if err := json.Unmarshal(data, &multi); err != nil {
		return fmt.Errorf("combination: must be a string or an array of strings: %w", err)
	}
	*c = multi
	return nil
}

// MarshalJSON writes a single-entry Combination as a bare string and any
// other as an array, so a one-element array that was read in comes back
// out as a bare string.
func (c Combination) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]string(c))
}

// At returns the strategy at index i, or Same if the combination is
// shorter than expected (defensive only; Validate rejects length
// mismatches before any peer runs).
func (c Combination) At(i int) string {
	if i < 0 || i >= len(c) {
		return "same"
	}
	return c[i]
}
