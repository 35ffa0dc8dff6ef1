package xlimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResult_Headers(t *testing.T) {
	reset := time.Unix(1_700_000_000, 0)
	r := &Result{Allowed: false, Limit: 10, Remaining: 0, ResetAt: reset, RetryAfter: 1200 * time.Millisecond}

	h := r.Headers()
	assert.Equal(t, "10", h["X-RateLimit-Limit"])
	assert.Equal(t, "0", h["X-RateLimit-Remaining"])
	assert.Equal(t, "1700000000", h["X-RateLimit-Reset"])
	assert.Equal(t, "2", h["Retry-After"], "sub-second remainder rounds up")
}

func TestResult_SetHeadersSkipsWithoutLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	(&Result{Allowed: true}).SetHeaders(rec)
	assert.Empty(t, rec.Header())
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, (&Result{Allowed: true}).Err())

	var nilResult *Result
	assert.NoError(t, nilResult.Err())

	err := (&Result{Allowed: false, Key: "k", Limit: 3}).Err()
	assert.True(t, IsDenied(err))
	var le *LimitError
	assert.ErrorAs(t, err, &le)
	assert.Equal(t, "k", le.Key)
}
