// Package schema defines the typed input and output shapes exchanged with
// generation backends and tools. Concrete payloads embed Base and carry
// json plus jsonschema struct tags so the structured-output layer can
// describe them to a model.
package schema
