package llm

import (
	"context"
	"strings"

	"github.com/bububa/instructor-go/pkg/instructor"
	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/bububa/deepquery/components"
)

type anthropicGenerator struct {
	clt           *anthropic.Client
	instr         *instructor.InstructorAnthropic
	maxToolRounds int
}

func newAnthropicGenerator(apiKey string, cfg config) *anthropicGenerator {
	opts := make([]anthropic.ClientOption, 0, 1)
	if cfg.baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.baseURL))
	}
	clt := anthropic.NewClient(apiKey, opts...)
	return &anthropicGenerator{
		clt:           clt,
		instr:         instructor.FromAnthropic(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()),
		maxToolRounds: cfg.maxToolRounds,
	}
}

func (g *anthropicGenerator) Generate(ctx context.Context, req *Request, output any) (*Result, error) {
	if len(req.Tools) == 0 {
		return g.structured(ctx, req, output)
	}
	return g.toolLoop(ctx, req, output)
}

func (g *anthropicGenerator) maxTokens(req *Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

// structured is the plain structured-output path without tools.
func (g *anthropicGenerator) structured(ctx context.Context, req *Request, output any) (*Result, error) {
	chatReq := anthropic.MessagesRequest{
		Model:       anthropic.Model(req.Model),
		System:      req.System,
		MaxTokens:   g.maxTokens(req),
		Temperature: &req.Temperature,
	}
	for _, msg := range req.Messages {
		v := new(anthropic.Message)
		msg.ToAnthropic(v)
		chatReq.Messages = append(chatReq.Messages, *v)
	}
	res, err := g.instr.CreateMessages(ctx, chatReq, output)
	if err != nil {
		return nil, err
	}
	ret := &Result{Structured: true}
	ret.Response.FromAnthropic(&res)
	return ret, nil
}

// toolLoop runs the native tool-use loop. Requested tool calls are executed
// strictly sequentially; their results are fed back as tool_result blocks
// until the model stops asking for tools.
func (g *anthropicGenerator) toolLoop(ctx context.Context, req *Request, output any) (*Result, error) {
	msgs := make([]anthropic.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		v := new(anthropic.Message)
		msg.ToAnthropic(v)
		msgs = append(msgs, *v)
	}
	chatTools := make([]anthropic.ToolDefinition, 0, len(req.Tools))
	for _, t := range req.Tools {
		chatTools = append(chatTools, anthropic.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	system := structuredSystemPrompt(req.System, output)
	usage := new(components.LLMUsage)
	var lastResp anthropic.MessagesResponse
	var lastText string
	for round := 0; round < g.maxToolRounds; round++ {
		resp, err := g.clt.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(req.Model),
			System:      system,
			MaxTokens:   g.maxTokens(req),
			Temperature: &req.Temperature,
			Messages:    msgs,
			Tools:       chatTools,
		})
		if err != nil {
			return nil, err
		}
		lastResp = resp
		usage.Merge(&components.LLMUsage{
			InputTokens:  int64(resp.Usage.InputTokens),
			OutputTokens: int64(resp.Usage.OutputTokens),
		})
		var textParts []string
		var toolUses []anthropic.MessageContent
		for _, c := range resp.Content {
			switch {
			case c.Type == anthropic.MessagesContentTypeText && c.Text != nil:
				textParts = append(textParts, *c.Text)
			case c.Type == anthropic.MessagesContentTypeToolUse && c.MessageContentToolUse != nil:
				toolUses = append(toolUses, c)
			}
		}
		lastText = strings.Join(textParts, "\n")
		if resp.StopReason != anthropic.MessagesStopReasonToolUse || len(toolUses) == 0 {
			return g.finalize(lastText, output, &lastResp, usage), nil
		}
		msgs = append(msgs, anthropic.Message{
			Role:    anthropic.RoleAssistant,
			Content: resp.Content,
		})
		results := make([]anthropic.MessageContent, 0, len(toolUses))
		for _, c := range toolUses {
			use := c.MessageContentToolUse
			tool, ok := findTool(req.Tools, use.Name)
			if !ok {
				results = append(results, anthropic.NewToolResultMessageContent(use.ID, "unknown tool: "+use.Name, true))
				continue
			}
			toolOut, err := tool.Execute(ctx, string(use.Input))
			if err != nil {
				return nil, err
			}
			results = append(results, anthropic.NewToolResultMessageContent(use.ID, toolOut, false))
		}
		msgs = append(msgs, anthropic.Message{
			Role:    anthropic.RoleUser,
			Content: results,
		})
	}
	return g.finalize(lastText, output, &lastResp, usage), nil
}

func (g *anthropicGenerator) finalize(content string, output any, resp *anthropic.MessagesResponse, usage *components.LLMUsage) *Result {
	ret := &Result{
		Structured: decodeStructured(content, output),
		Raw:        content,
	}
	ret.Response.FromAnthropic(resp)
	ret.Response.Usage = usage
	return ret
}
