package evals

import (
	"context"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/bububa/deepquery/components"
	"github.com/bububa/deepquery/flows"
)

// Researcher answers one question; satisfied by flows.ResearchFlow.
type Researcher interface {
	Run(ctx context.Context, question string, history []components.Message, model string) (*flows.Answer, error)
}

// Judge scores one answer; satisfied by flows.JudgeFlow.
type Judge interface {
	Run(ctx context.Context, question, answer string, expectedFacts []string, model string) (*flows.Judgement, error)
}

// Result records the outcome for one test case.
type Result struct {
	ID            string  `json:"id"`
	Question      string  `json:"question"`
	AnswerPreview string  `json:"answer_preview,omitempty"`
	Score         float64 `json:"score"`
	Reasoning     string  `json:"reasoning"`
	Success       bool    `json:"success"`
	Error         string  `json:"error,omitempty"`
}

// Summary aggregates one evaluation run.
type Summary struct {
	RunID string `json:"run_id"`
	// Results holds one entry per test case, in dataset order.
	Results []Result `json:"results"`
	// MeanScore is averaged over successful cases only.
	MeanScore float64 `json:"mean_score"`
	// PassRate counts successful cases at or above the pass threshold
	// against all cases, including failed ones.
	PassRate  float64 `json:"pass_rate"`
	Succeeded int     `json:"succeeded"`
	Total     int     `json:"total"`
}

const (
	defaultPause         = 2 * time.Second
	defaultPassThreshold = 6.0
	defaultPreviewLen    = 200
)

// Evaluator drives the research flow across a test set, strictly
// sequentially, and scores every answer with the judge flow. One failing case
// never aborts the run.
type Evaluator struct {
	research      Researcher
	judge         Judge
	model         string
	pause         time.Duration
	passThreshold float64
	previewLen    int
	logger        *zap.Logger
	sleep         func(ctx context.Context, d time.Duration)
}

type EvalOption func(e *Evaluator)

// WithModel selects the backend used for both research and judging.
func WithModel(model string) EvalOption {
	return func(e *Evaluator) {
		e.model = model
	}
}

// WithPause sets the courtesy backoff between cases.
func WithPause(pause time.Duration) EvalOption {
	return func(e *Evaluator) {
		e.pause = pause
	}
}

func WithPassThreshold(threshold float64) EvalOption {
	return func(e *Evaluator) {
		e.passThreshold = threshold
	}
}

func WithEvalLogger(logger *zap.Logger) EvalOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

func NewEvaluator(research Researcher, judge Judge, options ...EvalOption) *Evaluator {
	e := &Evaluator{
		research:      research,
		judge:         judge,
		pause:         defaultPause,
		passThreshold: defaultPassThreshold,
		previewLen:    defaultPreviewLen,
		logger:        zap.NewNop(),
		sleep:         sleep,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Run evaluates every case in order and aggregates the outcome. Cases run
// one at a time with a pause between them, not after the last, to respect
// upstream rate limits.
func (e *Evaluator) Run(ctx context.Context, cases []TestCase) *Summary {
	summary := &Summary{
		RunID:   xid.New().String(),
		Results: make([]Result, 0, len(cases)),
		Total:   len(cases),
	}
	for i, tc := range cases {
		if i > 0 {
			e.sleep(ctx, e.pause)
		}
		res := e.evaluate(ctx, tc)
		summary.Results = append(summary.Results, res)
		e.logger.Info("case recorded",
			zap.String("run", summary.RunID),
			zap.String("case", tc.ID),
			zap.Float64("score", res.Score),
			zap.Bool("success", res.Success),
		)
	}
	e.aggregate(summary)
	return summary
}

// evaluate runs one case end to end. Any failure in either flow is recorded
// on the case result and the run continues.
func (e *Evaluator) evaluate(ctx context.Context, tc TestCase) Result {
	res := Result{ID: tc.ID, Question: tc.Question}
	answer, err := e.research.Run(ctx, tc.Question, nil, e.model)
	if err != nil {
		res.Reasoning = "Error: " + err.Error()
		res.Error = err.Error()
		return res
	}
	res.AnswerPreview = preview(answer.Markdown, e.previewLen)
	verdict, err := e.judge.Run(ctx, tc.Question, answer.Markdown, tc.ExpectedFacts, e.model)
	if err != nil {
		res.Reasoning = "Error: " + err.Error()
		res.Error = err.Error()
		return res
	}
	res.Score = verdict.Score
	res.Reasoning = verdict.Reasoning
	res.Success = true
	return res
}

func (e *Evaluator) aggregate(summary *Summary) {
	var sum float64
	var passed int
	for _, res := range summary.Results {
		if !res.Success {
			continue
		}
		summary.Succeeded++
		sum += res.Score
		if res.Score >= e.passThreshold {
			passed++
		}
	}
	if summary.Succeeded > 0 {
		summary.MeanScore = sum / float64(summary.Succeeded)
	}
	if summary.Total > 0 {
		summary.PassRate = float64(passed) / float64(summary.Total)
	}
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
