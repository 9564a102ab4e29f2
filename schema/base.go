package schema

// Base is a base schema to embed in concrete payload types.
type Base struct{}

// String implements Schema interface
func (r Base) String() string {
	return ""
}
