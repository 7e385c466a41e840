package generation

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackCharsPerToken approximates English text when no encoding is
// available (tiktoken lazily downloads encoding data on first use, which
// can fail in restricted environments).
const fallbackCharsPerToken = 4

// TokenEstimator counts tokens locally. Used for cost accounting when a
// provider omits usage data from its response, and for prompt-size
// accounting before a call is made.
type TokenEstimator struct {
	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTokenEstimator creates an estimator. Encoding initialization is
// deferred to first use.
func NewTokenEstimator() *TokenEstimator {
	return &TokenEstimator{}
}

// init lazily loads the cl100k_base encoding, the common base for the
// chat model families this gateway talks to.
func (e *TokenEstimator) init() error {
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			e.initErr = err
			return
		}
		e.enc = enc
	})
	return e.initErr
}

// Estimate returns the approximate token count of text. When the
// encoding cannot be loaded it falls back to a characters-per-token
// heuristic rather than failing: cost accounting must degrade, not
// block generation.
func (e *TokenEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}

	if err := e.init(); err != nil {
		return (len(text) + fallbackCharsPerToken - 1) / fallbackCharsPerToken
	}

	return len(e.enc.Encode(text, nil, nil))
}
