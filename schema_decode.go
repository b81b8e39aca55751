package goforma

import (
	"time"

	"github.com/BurntSushi/toml"
	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/goforma/i18n"
)

// Document is the decoded form of a schema file. Fetch and transform
// functions are code, so documents reference data sources by key only;
// Sources may tune staleness and debounce per key, applied when the
// runtime DataSourceConfig leaves them zero.
type Document struct {
	Title   string                  `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Fields  []FieldDefinition       `json:"fields" yaml:"fields" toml:"fields"`
	Sources map[string]SourceTuning `json:"sources,omitempty" yaml:"sources,omitempty" toml:"sources,omitempty"`
}

// SourceTuning is per-source timing configuration carried by documents.
type SourceTuning struct {
	StaleTime Duration `json:"staleTime,omitempty" yaml:"staleTime,omitempty" toml:"staleTime,omitempty"`
	Debounce  Duration `json:"debounce,omitempty" yaml:"debounce,omitempty" toml:"debounce,omitempty"`
}

// Build validates the document into a Schema.
func (d Document) Build() (*Schema, error) {
	s, err := NewSchema(d.Fields...)
	if err != nil {
		return nil, err
	}
	s.title = d.Title
	if len(d.Sources) > 0 {
		s.tuning = make(map[string]SourceTuning, len(d.Sources))
		for k, v := range d.Sources {
			s.tuning[k] = v
		}
	}
	return s, nil
}

// ParseJSON decodes and validates a JSON schema document.
func ParseJSON(data []byte) (*Schema, error) {
	var doc Document
	if err := j.Unmarshal(data, &doc); err != nil {
		return nil, parseIssue(err)
	}
	return doc.Build()
}

// ParseYAML decodes and validates a YAML schema document.
func ParseYAML(data []byte) (*Schema, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, parseIssue(err)
	}
	return doc.Build()
}

// ParseTOML decodes and validates a TOML schema document.
func ParseTOML(data []byte) (*Schema, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, parseIssue(err)
	}
	return doc.Build()
}

func parseIssue(err error) Issues {
	return Issues{Issue{
		Path:    "",
		Code:    CodeParseError,
		Message: i18n.T(CodeParseError, nil),
		Cause:   err,
	}}
}

// Duration decodes Go duration strings ("45s") in every format, plus bare
// numbers (milliseconds) in JSON and YAML, matching how timing values are
// commonly written in form documents.
type Duration time.Duration

// Std converts to the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalJSON accepts "300ms"-style strings or numeric milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := j.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var ms float64
	if err := j.Unmarshal(data, &ms); err != nil {
		return err
	}
	*d = Duration(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

// UnmarshalYAML mirrors the JSON behaviour to keep YAML parity.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	var s string
	if err := value.Decode(&s); err == nil {
		v, perr := time.ParseDuration(s)
		if perr != nil {
			return perr
		}
		*d = Duration(v)
		return nil
	}
	var ms float64
	if err := value.Decode(&ms); err != nil {
		return err
	}
	*d = Duration(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

// UnmarshalText handles TOML, where durations are written as strings.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
