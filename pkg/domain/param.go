package domain

import "encoding/json"

// Param is an optional real-valued parameter. The zero value is "absent",
// which is how shallower hierarchies mark levels that do not exist. Absence
// is a tagged state, never a numeric stand-in: zero is a valid parameter
// value and must not be confused with "not applicable".
type Param struct {
	value float64
	set   bool
}

// NewParam returns a set parameter holding v.
func NewParam(v float64) Param {
	return Param{value: v, set: true}
}

// IsSet reports whether the parameter holds a value.
func (p Param) IsSet() bool { return p.set }

// Float dereferences the parameter. Reading an absent parameter is a
// SentinelError: it means an equation path reached a level that the
// configuration never declared.
func (p Param) Float() (float64, error) {
	if !p.set {
		return 0, &SentinelError{}
	}
	return p.value, nil
}

// Or returns the parameter value, or fallback when absent.
func (p Param) Or(fallback float64) float64 {
	if !p.set {
		return fallback
	}
	return p.value
}

// MarshalJSON encodes an absent parameter as null.
func (p Param) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

// UnmarshalJSON decodes null as absence.
func (p *Param) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Param{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = NewParam(v)
	return nil
}

// MarshalYAML encodes an absent parameter as null.
func (p Param) MarshalYAML() (interface{}, error) {
	if !p.set {
		return nil, nil
	}
	return p.value, nil
}

// UnmarshalYAML decodes null as absence.
func (p *Param) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v *float64
	if err := unmarshal(&v); err != nil {
		return err
	}
	if v == nil {
		*p = Param{}
		return nil
	}
	*p = NewParam(*v)
	return nil
}
