package flows

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/bububa/deepquery/components"
	"github.com/bububa/deepquery/llm"
	"github.com/bububa/deepquery/models"
	"github.com/bububa/deepquery/schema"
	"github.com/bububa/deepquery/tools/tavily"
)

const noAnswerPlaceholder = "No answer was produced."

// Source attributes one page the answer relied on.
type Source struct {
	// Title The title of the source page
	Title string `json:"title" jsonschema:"title=title,description=The title of the source page."`
	// URL The URL of the source page
	URL string `json:"url" jsonschema:"title=url,description=The URL of the source page."`
}

// Answer is the structured result of one research invocation.
// Sources may be empty but are never absent.
type Answer struct {
	schema.Base
	// Markdown The answer in markdown format
	Markdown string `json:"answer" jsonschema:"title=answer,description=The answer to the question in markdown format."`
	// Sources the pages the answer relied on, in order of use
	Sources []Source `json:"sources" jsonschema:"title=sources,description=The pages the answer relied on in order of use."`
}

func (s Answer) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// ResearchFlow resolves a model, runs one tool-augmented generation request
// and returns a structured answer. The backend decides whether and how many
// times to invoke the search capability; the flow neither bounds nor retries
// those calls.
type ResearchFlow struct {
	*flowBase
}

// NewResearchFlow builds the flow. It fails with the configuration error when
// no provider credential is present.
func NewResearchFlow(registry *models.Registry, options ...Option) (*ResearchFlow, error) {
	base, err := newFlowBase(registry, options...)
	if err != nil {
		return nil, err
	}
	if base.search == nil {
		base.search = tavily.New()
	}
	return &ResearchFlow{flowBase: base}, nil
}

// Run answers one question. history is the caller-owned conversation so far,
// excluding the current question; model selects a backend by name, empty for
// the registry default. Upstream failures are classified here and nowhere else.
func (f *ResearchFlow) Run(ctx context.Context, question string, history []components.Message, model string) (*Answer, error) {
	cfg, err := f.registry.Resolve(model)
	if err != nil {
		return nil, err
	}
	gen, err := f.generator(cfg.Provider)
	if err != nil {
		return nil, err
	}
	msgs := make([]components.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, *components.NewMessage(components.UserRole, schema.String(question)))
	req := &llm.Request{
		Model:       cfg.Name,
		System:      researchSystemPrompt,
		Messages:    msgs,
		Tools:       []llm.Tool{f.searchTool()},
		Temperature: f.temperature,
		MaxTokens:   f.maxTokens,
	}
	output := new(Answer)
	res, err := gen.Generate(ctx, req, output)
	if err != nil {
		return nil, Classify(err)
	}
	f.logger.Debug("research generation finished",
		zap.String("model", cfg.Name),
		zap.Bool("structured", res.Structured),
	)
	if !res.Structured {
		// degrade gracefully to the backend's raw text
		raw := res.Raw
		if raw == "" {
			raw = noAnswerPlaceholder
		}
		return &Answer{Markdown: raw, Sources: []Source{}}, nil
	}
	if output.Sources == nil {
		output.Sources = []Source{}
	}
	return output, nil
}

// searchTool declares the web search capability for the backend and binds its
// execution to the tavily tool.
func (f *ResearchFlow) searchTool() llm.Tool {
	return llm.Tool{
		Name:        "web_search",
		Description: f.search.Description(),
		Parameters:  llm.ReflectSchema(&tavily.Input{}),
		Execute: func(ctx context.Context, arguments string) (string, error) {
			input := new(tavily.Input)
			if err := json.Unmarshal([]byte(arguments), input); err != nil {
				// malformed arguments are the model's mistake, not an
				// upstream failure; report them back as the tool result
				return "invalid search arguments: " + err.Error(), nil
			}
			out, err := f.search.Run(ctx, input)
			if err != nil {
				return "", err
			}
			return out.String(), nil
		},
	}
}
