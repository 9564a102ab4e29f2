package schema

import "encoding/json"

// Schema is the marker interface for typed payloads exchanged with
// generation backends and tools.
type Schema interface {
	String() string
}

// Stringify renders a schema as the text sent to a language model.
func Stringify(s Schema) string {
	if v, ok := s.(String); ok {
		return string(v)
	}
	bs, _ := json.Marshal(s)
	return string(bs)
}

// ToBytes renders a schema as raw bytes.
func ToBytes(s Schema) []byte {
	if v, ok := s.(String); ok {
		return []byte(v)
	}
	bs, _ := json.Marshal(s)
	return bs
}
