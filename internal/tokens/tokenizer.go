package tokens

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Estimator token 估算器，tiktoken 失败时回退到启发式
// Estimator counts tokens with tiktoken, falling back to a heuristic when
// the encoding is unavailable (e.g. no BPE cache in offline environments).
type Estimator struct {
	encoder  *tiktoken.Tiktoken
	fallback bool
	mu       sync.RWMutex
}

var (
	defaultEstimator     *Estimator
	defaultEstimatorOnce sync.Once
)

// Default returns the process-wide cl100k_base estimator.
func Default() *Estimator {
	defaultEstimatorOnce.Do(func() {
		defaultEstimator = New("cl100k_base")
	})
	return defaultEstimator
}

// New creates an estimator for the named encoding.
func New(encodingName string) *Estimator {
	e := &Estimator{}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		e.fallback = true
		return e
	}
	e.encoder = enc
	return e
}

// CountText returns the estimated token count for text.
func (e *Estimator) CountText(text string) int {
	if text == "" {
		return 0
	}
	if e.fallback {
		return heuristicCount(text)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.encoder.Encode(text, nil, nil))
}

// IsPrecise reports whether tiktoken is in use rather than the heuristic.
func (e *Estimator) IsPrecise() bool {
	return !e.fallback
}

// heuristicCount 启发式估算：CJK 约 1.5 token/字，ASCII 约 4 字符/token
// heuristicCount estimates ~1.5 tokens per CJK rune and ~4 chars per token
// for everything else.
func heuristicCount(text string) int {
	cjk := 0
	other := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	estimate := int(float64(cjk)*1.5 + float64(other)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF) ||
		(r >= 0xAC00 && r <= 0xD7AF)
}
