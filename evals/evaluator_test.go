package evals

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/deepquery/components"
	"github.com/bububa/deepquery/flows"
)

type fakeResearcher struct {
	answers map[string]*flows.Answer
	fails   map[string]error
	order   []string
}

func (r *fakeResearcher) Run(_ context.Context, question string, _ []components.Message, _ string) (*flows.Answer, error) {
	r.order = append(r.order, question)
	if err, ok := r.fails[question]; ok {
		return nil, err
	}
	if ans, ok := r.answers[question]; ok {
		return ans, nil
	}
	return &flows.Answer{Markdown: "answer to " + question, Sources: []flows.Source{}}, nil
}

type fakeJudge struct {
	scores map[string]float64
	fails  map[string]error
}

func (j *fakeJudge) Run(_ context.Context, question, _ string, _ []string, _ string) (*flows.Judgement, error) {
	if err, ok := j.fails[question]; ok {
		return nil, err
	}
	return &flows.Judgement{Score: j.scores[question], Reasoning: "graded " + question}, nil
}

func TestEvaluatorEndToEnd(t *testing.T) {
	cases := []TestCase{
		{ID: "bitcoin-price", Question: "What is the current bitcoin price?", ExpectedFacts: []string{"price in USD", "source cited"}},
	}
	research := &fakeResearcher{
		answers: map[string]*flows.Answer{
			"What is the current bitcoin price?": {
				Markdown: "Bitcoin trades around $60,000 according to coindesk.com.",
				Sources:  []flows.Source{{Title: "CoinDesk", URL: "https://coindesk.com"}},
			},
		},
	}
	judge := &fakeJudge{scores: map[string]float64{"What is the current bitcoin price?": 9}}
	ev := NewEvaluator(research, judge, WithPause(0))
	summary := ev.Run(context.Background(), cases)
	require.Len(t, summary.Results, 1)
	res := summary.Results[0]
	assert.Equal(t, "bitcoin-price", res.ID)
	assert.True(t, res.Success)
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 10.0)
	assert.Contains(t, res.AnswerPreview, "$60,000")
	assert.Equal(t, 1, summary.Succeeded)
}

func TestEvaluatorFailureIsolation(t *testing.T) {
	var cases []TestCase
	for i := 0; i < 5; i++ {
		cases = append(cases, TestCase{
			ID:            fmt.Sprintf("case-%d", i),
			Question:      fmt.Sprintf("question %d", i),
			ExpectedFacts: []string{"fact"},
		})
	}
	research := &fakeResearcher{
		fails: map[string]error{"question 2": errors.New("upstream exploded")},
	}
	judge := &fakeJudge{scores: map[string]float64{}}
	ev := NewEvaluator(research, judge, WithPause(0))
	summary := ev.Run(context.Background(), cases)

	require.Len(t, summary.Results, 5)
	assert.False(t, summary.Results[2].Success)
	assert.Equal(t, 0.0, summary.Results[2].Score)
	assert.Equal(t, "Error: upstream exploded", summary.Results[2].Reasoning)
	// the cases after the failing one are still attempted, in order
	require.Len(t, research.order, 5)
	for i, q := range research.order {
		assert.Equal(t, fmt.Sprintf("question %d", i), q)
	}
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 5, summary.Total)
}

func TestEvaluatorJudgeFailureRecorded(t *testing.T) {
	cases := []TestCase{{ID: "a", Question: "q", ExpectedFacts: []string{"f"}}}
	research := &fakeResearcher{}
	judge := &fakeJudge{fails: map[string]error{"q": errors.New("judge down")}}
	ev := NewEvaluator(research, judge, WithPause(0))
	summary := ev.Run(context.Background(), cases)
	require.Len(t, summary.Results, 1)
	assert.False(t, summary.Results[0].Success)
	assert.Equal(t, "Error: judge down", summary.Results[0].Reasoning)
}

func TestEvaluatorAggregation(t *testing.T) {
	cases := []TestCase{
		{ID: "a", Question: "qa", ExpectedFacts: []string{"f"}},
		{ID: "b", Question: "qb", ExpectedFacts: []string{"f"}},
		{ID: "c", Question: "qc", ExpectedFacts: []string{"f"}},
	}
	research := &fakeResearcher{
		fails: map[string]error{"qc": errors.New("boom")},
	}
	judge := &fakeJudge{scores: map[string]float64{"qa": 8, "qb": 4}}
	ev := NewEvaluator(research, judge, WithPause(0))
	summary := ev.Run(context.Background(), cases)

	// scores [8, 4, failed]: mean over successes, pass rate over all cases
	assert.InDelta(t, 6.0, summary.MeanScore, 1e-9)
	assert.InDelta(t, 1.0/3.0, summary.PassRate, 1e-9)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 3, summary.Total)
}

func TestEvaluatorEmptySet(t *testing.T) {
	ev := NewEvaluator(&fakeResearcher{}, &fakeJudge{}, WithPause(0))
	summary := ev.Run(context.Background(), nil)
	assert.Empty(t, summary.Results)
	assert.Zero(t, summary.MeanScore)
	assert.Zero(t, summary.PassRate)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	long := preview("0123456789abcdef", 10)
	assert.Equal(t, "0123456789...", long)
}

func TestEvaluatorPauseBetweenCases(t *testing.T) {
	var cases []TestCase
	for i := 0; i < 3; i++ {
		cases = append(cases, TestCase{
			ID:            fmt.Sprintf("case-%d", i),
			Question:      fmt.Sprintf("question %d", i),
			ExpectedFacts: []string{"fact"},
		})
	}
	research := &fakeResearcher{}
	judge := &fakeJudge{scores: map[string]float64{}}
	ev := NewEvaluator(research, judge, WithPause(time.Second))

	var pauses []time.Duration
	ev.sleep = func(_ context.Context, d time.Duration) {
		pauses = append(pauses, d)
		// every case already ran before this pause was requested
		assert.NotEmpty(t, research.order)
	}

	summary := ev.Run(context.Background(), cases)
	require.Len(t, summary.Results, 3)
	// pauses sit between cases only, never before the first or after the last
	require.Len(t, pauses, 2)
	for _, d := range pauses {
		assert.Equal(t, time.Second, d)
	}
	assert.Len(t, research.order, 3)
}
