package flows

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bububa/deepquery/components"
	"github.com/bububa/deepquery/llm"
	"github.com/bububa/deepquery/models"
	"github.com/bububa/deepquery/schema"
)

// Judgement is the verdict of one judge call. The score is bounded to [0,10]
// by contract with the judge prompt, not enforced by the type.
type Judgement struct {
	schema.Base
	// Score how completely the answer covers the expected facts, 0 to 10
	Score float64 `json:"score" jsonschema:"title=score,description=Score between 0 and 10 for how completely the answer covers the expected facts.,minimum=0,maximum=10"`
	// Reasoning one short paragraph explaining the score
	Reasoning string `json:"reasoning" jsonschema:"title=reasoning,description=One short paragraph explaining the score." validate:"required"`
}

func (s Judgement) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// JudgeFlow grades a candidate answer against expected facts with a second
// generation call acting as an impartial grader. It is a generation call, not
// rule-based matching.
type JudgeFlow struct {
	*flowBase
}

func NewJudgeFlow(registry *models.Registry, options ...Option) (*JudgeFlow, error) {
	base, err := newFlowBase(registry, options...)
	if err != nil {
		return nil, err
	}
	return &JudgeFlow{flowBase: base}, nil
}

// Run grades one answer. Errors are returned verbatim: classification belongs
// to the research flow boundary, and the evaluator treats every judge failure
// identically.
func (f *JudgeFlow) Run(ctx context.Context, question, answer string, expectedFacts []string, model string) (*Judgement, error) {
	cfg, err := f.registry.Resolve(model)
	if err != nil {
		return nil, err
	}
	gen, err := f.generator(cfg.Provider)
	if err != nil {
		return nil, err
	}
	req := &llm.Request{
		Model:  cfg.Name,
		System: judgeSystemPrompt,
		Messages: []components.Message{
			*components.NewMessage(components.UserRole, schema.String(judgeUserPrompt(question, answer, expectedFacts))),
		},
		Temperature: f.temperature,
		MaxTokens:   f.maxTokens,
	}
	output := new(Judgement)
	res, err := gen.Generate(ctx, req, output)
	if err != nil {
		return nil, err
	}
	if !res.Structured {
		return nil, errors.New("judge returned a malformed verdict")
	}
	return output, nil
}
