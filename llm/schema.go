package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// ReflectSchema derives the JSON schema of a payload type, inlined without
// definitions so it can be embedded in tool declarations and prompts.
func ReflectSchema(v any) map[string]any {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	s := r.Reflect(v)
	bs, _ := json.Marshal(s)
	out := make(map[string]any)
	_ = json.Unmarshal(bs, &out)
	return out
}

// structuredSystemPrompt appends the target output schema to the system
// prompt for the tool-augmented path, where the final turn must carry a JSON
// object matching the declared shape.
func structuredSystemPrompt(system string, output any) string {
	if output == nil {
		return system
	}
	bs, _ := json.Marshal(ReflectSchema(output))
	return fmt.Sprintf("%s\n\nWhen you have your final answer, respond with a single JSON object matching this JSON schema, with no surrounding text:\n%s", system, bs)
}

// decodeStructured attempts to parse the backend's final text into the target
// shape. It tolerates a fenced code block around the object. A false return
// is not an error: the caller degrades to the raw text.
func decodeStructured(content string, output any) bool {
	if output == nil {
		return false
	}
	text := strings.TrimSpace(content)
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}
	if !strings.HasPrefix(text, "{") {
		// salvage an embedded object
		if start := strings.Index(text, "{"); start >= 0 {
			if end := strings.LastIndex(text, "}"); end > start {
				text = text[start : end+1]
			}
		}
	}
	return json.Unmarshal([]byte(text), output) == nil
}
