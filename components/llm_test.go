package components

import "testing"

func TestLLMUsageMerge(t *testing.T) {
	usage := &LLMUsage{InputTokens: 10, OutputTokens: 5}
	usage.Merge(&LLMUsage{InputTokens: 20, OutputTokens: 7})
	usage.Merge(nil)
	usage.Merge(&LLMUsage{InputTokens: 3})
	if usage.InputTokens != 33 {
		t.Errorf("input tokens: expect 33, got %d", usage.InputTokens)
	}
	if usage.OutputTokens != 12 {
		t.Errorf("output tokens: expect 12, got %d", usage.OutputTokens)
	}
}
