package config

import (
	"bytes"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/DDNStorage/qosd/errors"
)

// Encoded is the payload returned by Controller.Encode (spec §4.7): the
// current option values, optionally paired with the option-name schema.
type Encoded struct {
	// Structure lists the recognised option names, present when the
	// caller asked for include_structure.
	Structure []string `toml:"structure,omitempty"`

	// Values holds the current option values as TOML, present when the
	// caller asked for include_status.
	Values string `toml:"-"`
}

// Encode renders Options back out as TOML text, grounded on am/persist.go's
// use of pelletier/go-toml/v2 for the admin-facing encode path (distinct
// from the BurntSushi/viper load path used by Load).
func Encode(o Options) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(o); err != nil {
		return "", errors.Wrap(err, "failed to encode qos options")
	}
	return buf.String(), nil
}

// EncodeFor builds the admin-surface response for a single controller: its
// current values when includeStatus is set, and the recognised option
// names when includeStructure is set. Either, both, or neither may be
// requested; an empty Encoded is a valid, if useless, answer.
func EncodeFor(o Options, includeStatus, includeStructure bool) (Encoded, error) {
	var out Encoded

	if includeStructure {
		out.Structure = OptionNames()
	}

	if includeStatus {
		values, err := Encode(o)
		if err != nil {
			return Encoded{}, err
		}
		out.Values = values
	}

	return out, nil
}
