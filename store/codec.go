package store

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/confer-dev/confer/value"
)

// decodeDocument parses TOML text into the section map the value
// algebra recognizes. Only top-level tables become sections; a bare
// top-level scalar or array has no section to live in and is skipped.
// A value inside a section that falls outside the value algebra is a
// parse failure.
func decodeDocument(text []byte) (map[string]Section, *Error) {
	var raw map[string]interface{}
	if err := toml.Unmarshal(text, &raw); err != nil {
		return nil, parseError(err)
	}

	sections := make(map[string]Section, len(raw))
	for name, rawSection := range raw {
		table, ok := rawSection.(map[string]interface{})
		if !ok {
			// A root-level scalar/array outside any table header has
			// no section to live in; the store only recognizes
			// top-level tables as sections, so these are
			// silently not represented rather than rejected.
			continue
		}
		sec := Section{}
		for key, rawValue := range table {
			v, ok := value.FromInterface(rawValue)
			if !ok {
				return nil, parseError(errNotAValueAlgebraShape(name, key))
			}
			sec[key] = v
		}
		sections[name] = sec
	}
	return sections, nil
}

// encodeDocument serializes sections to TOML text. Key ordering,
// comments, and original whitespace are never preserved — save always
// produces a freshly serialized form.
func encodeDocument(sections map[string]Section) ([]byte, *Error) {
	raw := make(map[string]interface{}, len(sections))
	for name, sec := range sections {
		table := make(map[string]interface{}, len(sec))
		for key, v := range sec {
			table[key] = v.Interface()
		}
		raw[name] = table
	}
	out, err := toml.Marshal(raw)
	if err != nil {
		return nil, serializeError(err)
	}
	return out, nil
}

type docError struct{ msg string }

func (e *docError) Error() string { return e.msg }

func errNotAValueAlgebraShape(section, key string) error {
	return &docError{msg: section + "." + key + " has a shape outside the supported value algebra"}
}
