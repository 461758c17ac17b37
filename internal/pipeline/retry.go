package pipeline

import (
	"errors"
	"math/rand"
	"time"

	"github.com/DinuPhan/MRE-Rag/internal/contextgen"
	"github.com/DinuPhan/MRE-Rag/internal/embeddings"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var embedErr *embeddings.RetryableError
	if errors.As(err, &embedErr) {
		return true
	}
	var titleErr *contextgen.RetryableError
	return errors.As(err, &titleErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
