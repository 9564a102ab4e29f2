package flows

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

// InsufficientBalanceError marks a billing or quota-exhaustion failure.
// Non-retryable: the caller must switch backend or replenish funds.
type InsufficientBalanceError struct {
	Err error
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: %v", e.Err)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return e.Err
}

// RateLimitError marks a throttling failure. Retryable after the hinted wait.
type RateLimitError struct {
	Err               error
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds: %v", e.RetryAfterSeconds, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

const defaultRetryAfterSeconds = 30

var retryAfterPattern = regexp.MustCompile(`(?i)retry in (\d+)`)

// The bare status codes match only as standalone tokens, so a digit run
// inside an unrelated diagnostic never triggers classification.
var (
	balanceCodePattern   = regexp.MustCompile(`\b402\b`)
	rateLimitCodePattern = regexp.MustCompile(`\b429\b`)
)

var balanceMarkers = []string{
	"insufficient quota",
	"insufficient balance",
	"insufficient credit",
	"billing hard limit",
}

var rateLimitMarkers = []string{
	"resource exhausted",
	"resource_exhausted",
	"rate limit",
	"rate_limit",
	"too many requests",
	"quota",
}

// Classify maps an upstream generation failure into the error taxonomy.
// It happens exactly once, at the flow boundary; downstream consumers only
// react. Structured status codes from the transport are checked first, then
// the diagnostic text. Priority is fixed: balance exhaustion wins over a
// coincidental rate-limit-like phrase, everything else propagates verbatim.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	status := statusCode(err)
	msg := strings.ToLower(err.Error())
	if status == http.StatusPaymentRequired || balanceCodePattern.MatchString(msg) || containsAny(msg, balanceMarkers) {
		return &InsufficientBalanceError{Err: err}
	}
	if status == http.StatusTooManyRequests || rateLimitCodePattern.MatchString(msg) || containsAny(msg, rateLimitMarkers) {
		return &RateLimitError{Err: err, RetryAfterSeconds: retryAfterHint(msg)}
	}
	return err
}

// statusCode extracts an HTTP status from the typed SDK errors when present.
func statusCode(err error) int {
	var oerr *openai.APIError
	if errors.As(err, &oerr) {
		return oerr.HTTPStatusCode
	}
	var aerr *anthropic.RequestError
	if errors.As(err, &aerr) {
		return aerr.StatusCode
	}
	return 0
}

func containsAny(msg string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// retryAfterHint extracts the backoff hint from a "retry in <N>" phrase,
// defaulting to defaultRetryAfterSeconds.
func retryAfterHint(msg string) int {
	if m := retryAfterPattern.FindStringSubmatch(msg); len(m) == 2 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return defaultRetryAfterSeconds
}
