package llm

import (
	"context"

	"github.com/bububa/instructor-go/pkg/instructor"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/deepquery/components"
)

type openaiGenerator struct {
	clt           *openai.Client
	instr         *instructor.InstructorOpenAI
	maxToolRounds int
}

func newOpenAIGenerator(apiKey string, cfg config) *openaiGenerator {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		clientCfg.BaseURL = cfg.baseURL
	}
	clt := openai.NewClientWithConfig(clientCfg)
	return &openaiGenerator{
		clt:           clt,
		instr:         instructor.FromOpenAI(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()),
		maxToolRounds: cfg.maxToolRounds,
	}
}

func (g *openaiGenerator) Generate(ctx context.Context, req *Request, output any) (*Result, error) {
	if len(req.Tools) == 0 {
		return g.structured(ctx, req, output)
	}
	return g.toolLoop(ctx, req, output)
}

// structured is the plain structured-output path without tools.
func (g *openaiGenerator) structured(ctx context.Context, req *Request, output any) (*Result, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:               req.Model,
		Temperature:         req.Temperature,
		MaxCompletionTokens: req.MaxTokens,
	}
	chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.System,
	})
	for _, msg := range req.Messages {
		v := new(openai.ChatCompletionMessage)
		msg.ToOpenAI(v)
		chatReq.Messages = append(chatReq.Messages, *v)
	}
	res, err := g.instr.CreateChatCompletion(ctx, chatReq, output)
	if err != nil {
		return nil, err
	}
	ret := &Result{Structured: true}
	ret.Response.FromOpenAI(&res)
	return ret, nil
}

// toolLoop runs the native tool-use loop: the model decides whether to call a
// declared tool; requested calls are executed strictly sequentially and their
// results fed back until the model produces a final text turn.
func (g *openaiGenerator) toolLoop(ctx context.Context, req *Request, output any) (*Result, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: structuredSystemPrompt(req.System, output),
	})
	for _, msg := range req.Messages {
		v := new(openai.ChatCompletionMessage)
		msg.ToOpenAI(v)
		msgs = append(msgs, *v)
	}
	chatTools := make([]openai.Tool, 0, len(req.Tools))
	for _, t := range req.Tools {
		chatTools = append(chatTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	usage := new(components.LLMUsage)
	var lastResp openai.ChatCompletionResponse
	var lastContent string
	for round := 0; round < g.maxToolRounds; round++ {
		resp, err := g.clt.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:               req.Model,
			Temperature:         req.Temperature,
			MaxCompletionTokens: req.MaxTokens,
			Messages:            msgs,
			Tools:               chatTools,
		})
		if err != nil {
			return nil, err
		}
		lastResp = resp
		usage.Merge(&components.LLMUsage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		})
		if len(resp.Choices) == 0 {
			break
		}
		msg := resp.Choices[0].Message
		lastContent = msg.Content
		if len(msg.ToolCalls) == 0 {
			return g.finalize(msg.Content, output, &lastResp, usage), nil
		}
		msgs = append(msgs, msg)
		for _, tc := range msg.ToolCalls {
			tool, ok := findTool(req.Tools, tc.Function.Name)
			if !ok {
				msgs = append(msgs, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    "unknown tool: " + tc.Function.Name,
					ToolCallID: tc.ID,
				})
				continue
			}
			toolOut, err := tool.Execute(ctx, tc.Function.Arguments)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    toolOut,
				ToolCallID: tc.ID,
			})
		}
	}
	// tool rounds exhausted without a final text turn
	return g.finalize(lastContent, output, &lastResp, usage), nil
}

func (g *openaiGenerator) finalize(content string, output any, resp *openai.ChatCompletionResponse, usage *components.LLMUsage) *Result {
	ret := &Result{
		Structured: decodeStructured(content, output),
		Raw:        content,
	}
	ret.Response.FromOpenAI(resp)
	ret.Response.Usage = usage
	return ret
}
