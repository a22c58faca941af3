package core

const redacted = "[REDACTED]"

// Secret holds a credential. Every formatting and marshaling path prints
// [REDACTED]; only Expose returns the value.
//
//	key := NewSecret("AIza-abc123")
//	fmt.Println(key)   // [REDACTED]
//	key.Expose()       // "AIza-abc123"
type Secret struct {
	value string
}

// NewSecret wraps value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return "core.Secret{" + redacted + "}" }

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// UnmarshalText lets YAML and flag decoders fill a Secret directly.
func (s *Secret) UnmarshalText(text []byte) error {
	s.value = string(text)
	return nil
}

// Expose returns the credential. Callers must not log it.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty reports whether no credential is set.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

// Hint returns "..." plus the last four characters, enough to tell keys
// apart in diagnostics. Keys shorter than 12 characters give "".
func (s Secret) Hint() string {
	if len(s.value) < 12 {
		return ""
	}
	return "..." + s.value[len(s.value)-4:]
}
