package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

func TestDecodeStructured(t *testing.T) {
	out := new(verdict)
	require.True(t, decodeStructured(`{"score": 7.5, "reasoning": "covers both facts"}`, out))
	assert.Equal(t, 7.5, out.Score)
	assert.Equal(t, "covers both facts", out.Reasoning)
}

func TestDecodeStructuredFenced(t *testing.T) {
	out := new(verdict)
	content := "Here is my verdict:\n```json\n{\"score\": 4, \"reasoning\": \"missing one fact\"}\n```"
	require.True(t, decodeStructured(content, out))
	assert.Equal(t, 4.0, out.Score)
}

func TestDecodeStructuredEmbedded(t *testing.T) {
	out := new(verdict)
	content := `The verdict is {"score": 9, "reasoning": "complete"} overall.`
	require.True(t, decodeStructured(content, out))
	assert.Equal(t, 9.0, out.Score)
}

func TestDecodeStructuredMalformed(t *testing.T) {
	out := new(verdict)
	assert.False(t, decodeStructured("I could not find anything relevant.", out))
	assert.False(t, decodeStructured("", out))
}

func TestReflectSchema(t *testing.T) {
	s := ReflectSchema(&verdict{})
	require.NotNil(t, s)
	assert.Equal(t, "object", s["type"])
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "score")
	assert.Contains(t, props, "reasoning")
}
