// Package secret holds sensitive configuration, such as the Redis password, in a type that
// will not leak its value when printed, traced or marshalled.
package secret

type String string

const redacted = "REDACTED"

// String implements fmt.Stringer and redacts the sensitive value.
func (s String) String() string {
	return redacted
}

// GoString implements fmt.GoStringer and redacts the sensitive value.
func (s String) GoString() string {
	return redacted
}

// Raw returns the sensitive value as a string.
func (s String) Raw() string {
	return string(s)
}

func (s String) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalYAML implements yaml.Marshaler so reports never carry the value.
func (s String) MarshalYAML() (interface{}, error) {
	return redacted, nil
}
