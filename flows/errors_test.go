package flows

import (
	"errors"
	"testing"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyInsufficientBalance(t *testing.T) {
	for _, msg := range []string{
		"status 402 payment required",
		"you exceeded your current quota: insufficient quota",
		"Insufficient Balance to complete the request",
	} {
		err := Classify(errors.New(msg))
		var balErr *InsufficientBalanceError
		require.True(t, errors.As(err, &balErr), "expect balance error for %q", msg)
		assert.Equal(t, msg, balErr.Err.Error())
	}
}

func TestClassifyRateLimit(t *testing.T) {
	err := Classify(errors.New("429 too many requests"))
	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, defaultRetryAfterSeconds, rlErr.RetryAfterSeconds)

	err = Classify(errors.New("resource exhausted, please retry in 45 seconds"))
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, 45, rlErr.RetryAfterSeconds)
}

func TestClassifyPriority(t *testing.T) {
	// balance exhaustion must win over a coincidental rate-limit phrase
	err := Classify(errors.New("429 rate limit hit: insufficient quota on account"))
	var balErr *InsufficientBalanceError
	require.True(t, errors.As(err, &balErr))
	var rlErr *RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestClassifyUnrelatedPropagatesVerbatim(t *testing.T) {
	for _, msg := range []string{
		"connection reset by peer",
		// digit runs embedding a status code must not trigger classification
		"maximum context length is 4296 tokens",
		"request id 140290 rejected by upstream",
	} {
		cause := errors.New(msg)
		assert.Same(t, cause, Classify(cause), "expect verbatim propagation for %q", msg)
	}
}

func TestClassifyBareStatusToken(t *testing.T) {
	var rlErr *RateLimitError
	require.True(t, errors.As(Classify(errors.New("upstream returned 429")), &rlErr))
	var balErr *InsufficientBalanceError
	require.True(t, errors.As(Classify(errors.New("upstream returned 402")), &balErr))
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(nil))
}

func TestClassifyStatusCodes(t *testing.T) {
	oerr := &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}
	var rlErr *RateLimitError
	require.True(t, errors.As(Classify(oerr), &rlErr))

	aerr := &anthropic.RequestError{StatusCode: 402, Err: errors.New("payment required")}
	var balErr *InsufficientBalanceError
	require.True(t, errors.As(Classify(aerr), &balErr))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	assert.ErrorIs(t, &InsufficientBalanceError{Err: cause}, cause)
	assert.ErrorIs(t, &RateLimitError{Err: cause, RetryAfterSeconds: 30}, cause)
}
