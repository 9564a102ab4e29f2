package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func startSearchServer(t *testing.T, results *searchResponse) *httptest.Server {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode search request: %v", err)
		}
		if req.SearchDepth != "basic" {
			t.Errorf("expect search_depth basic, but got %s", req.SearchDepth)
		}
		if !req.IncludeAnswer {
			t.Error("expect include_answer to be set")
		}
		if req.IncludeRawContent || req.IncludeImages {
			t.Error("raw content and images must be disabled")
		}
		json.NewEncoder(w).Encode(results)
	}
	return httptest.NewServer(http.HandlerFunc(handler))
}

func TestSearch(t *testing.T) {
	mockQuery := "current bitcoin price"
	mockResult := searchResponse{
		Query:  mockQuery,
		Answer: "Bitcoin trades around $60,000.",
	}
	mockResult.Results = append(mockResult.Results, struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	}{Title: "Bitcoin Price", URL: "https://example.com/btc", Content: "BTC/USD quote", Score: 0.98})
	srv := startSearchServer(t, &mockResult)
	defer srv.Close()

	tool := New(WithBaseURL(srv.URL), WithAPIKey("tvly-test"))
	result, err := tool.Run(context.Background(), NewInput(mockQuery))
	if err != nil {
		t.Fatalf("Error running Search: %v", err)
	}
	if result.Answer != mockResult.Answer {
		t.Errorf("Expect answer %s, but got %s", mockResult.Answer, result.Answer)
	}
	if len(result.Results) != 1 {
		t.Fatalf("Error number of results, expect 1, but got %d", len(result.Results))
	}
	item := result.Results[0]
	if item.Title != "Bitcoin Price" {
		t.Errorf("Expect title Bitcoin Price, but got %s", item.Title)
	}
	if item.URL != "https://example.com/btc" {
		t.Errorf("Expect url https://example.com/btc, but got %s", item.URL)
	}
	if item.Content != "BTC/USD quote" {
		t.Errorf("Expect content BTC/USD quote, but got %s", item.Content)
	}
}

func TestSearchMaxResults(t *testing.T) {
	mockResult := searchResponse{Query: "many results"}
	for i := 0; i < 10; i++ {
		mockResult.Results = append(mockResult.Results, struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		}{Title: "r", URL: "https://example.com", Content: "c"})
	}
	srv := startSearchServer(t, &mockResult)
	defer srv.Close()

	tool := New(WithBaseURL(srv.URL))
	input := NewInput("many results")
	input.MaxResults = 3
	result, err := tool.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Error running Search: %v", err)
	}
	if len(result.Results) != 3 {
		t.Errorf("expect 3 results, but got %d", len(result.Results))
	}
}

func TestSearchProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "usage limit exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tool := New(WithBaseURL(srv.URL))
	if _, err := tool.Run(context.Background(), NewInput("fails")); err == nil {
		t.Fatal("expect provider failure to surface as an error")
	}
}
