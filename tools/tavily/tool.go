// Package tavily is a web search tool backed by the Tavily search API.
// It is the only capability exposed to the generation backend; its
// Input/Output shapes are the contract at that boundary.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/bububa/deepquery/schema"
	"github.com/bububa/deepquery/tools"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	defaultMaxResults = 5
	searchDepthBasic  = "basic"
)

// Input is the search request schema exposed to the generation backend.
type Input struct {
	schema.Base
	// Query is the web search query.
	Query string `json:"query" jsonschema:"title=query,description=The web search query." validate:"required"`
	// MaxResults caps the number of returned results.
	MaxResults int `json:"max_results,omitempty" jsonschema:"title=max_results,description=Maximum number of search results to return.,default=5"`
}

func NewInput(query string) *Input {
	return &Input{Query: query}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// SearchResultItem represents a single search result item
type SearchResultItem struct {
	schema.Base
	// Title The title of the search result
	Title string `json:"title" jsonschema:"title=title,description=The title of the search result"`
	// URL The URL of the search result
	URL string `json:"url" jsonschema:"title=url,description=The URL of the search result"`
	// Content The content snippet of the search result
	Content string `json:"content,omitempty" jsonschema:"title=content,description=The content snippet of the search result"`
}

func (s SearchResultItem) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output represents the output of the web search tool.
type Output struct {
	schema.Base
	// Answer is the answer synthesized by the search provider, when available.
	Answer string `json:"answer,omitempty" jsonschema:"title=answer,description=Answer synthesized by the search provider."`
	// Results List of search result items
	Results []SearchResultItem `json:"results,omitempty" jsonschema:"title=results,description=List of search result items"`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// searchRequest is the wire request. Search parameters besides the query and
// result cap are fixed and not configurable per call.
type searchRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
	IncludeImages     bool   `json:"include_images"`
}

type searchResponse struct {
	Query   string `json:"query"`
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

type Config struct {
	tools.Config
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

// Search performs one web search per Run call.
type Search struct {
	Config
}

var _ tools.Tool[Input, Output] = (*Search)(nil)

func New(opts ...Option) *Search {
	ret := new(Search)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("TavilySearch")
	}
	if ret.Description() == "" {
		ret.SetDescription("Search the web for current information. Returns a list of results with title, url and content snippet.")
	}
	if ret.baseURL == "" {
		ret.baseURL = defaultBaseURL
	}
	if ret.maxResults == 0 {
		ret.maxResults = defaultMaxResults
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	return ret
}

// Run issues one search call. Provider failures are logged and returned
// unchanged so the caller's classification logic can act on them.
func (t *Search) Run(ctx context.Context, input *Input) (*Output, error) {
	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = t.maxResults
	}
	reqBody := searchRequest{
		Query:             input.Query,
		SearchDepth:       searchDepthBasic,
		MaxResults:        maxResults,
		IncludeAnswer:     true,
		IncludeRawContent: false,
		IncludeImages:     false,
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&reqBody); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.logger.Error("web search request failed", zap.String("query", input.Query), zap.Error(err))
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 2048))
		err := fmt.Errorf("search provider returned status %d: %s", httpResp.StatusCode, bytes.TrimSpace(body))
		t.logger.Error("web search failed", zap.String("query", input.Query), zap.Int("status", httpResp.StatusCode), zap.Error(err))
		return nil, err
	}
	var searchResp searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&searchResp); err != nil {
		t.logger.Error("web search response decode failed", zap.String("query", input.Query), zap.Error(err))
		return nil, err
	}
	out := &Output{Answer: searchResp.Answer}
	for idx, v := range searchResp.Results {
		if idx >= maxResults {
			break
		}
		out.Results = append(out.Results, SearchResultItem{
			Title:   v.Title,
			URL:     v.URL,
			Content: v.Content,
		})
	}
	return out, nil
}
