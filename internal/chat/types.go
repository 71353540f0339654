package chat

// Turn is one completed user/bot exchange.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// History keeps the most recent conversation turns. Once the cap is
// reached the oldest turn is evicted first.
type History struct {
	turns []Turn
	max   int
}

// NewHistory creates a history bounded to max turns. A non-positive max
// falls back to 10.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 10
	}
	return &History{turns: make([]Turn, 0, max), max: max}
}

// Append adds a turn, dropping the oldest entries beyond the cap.
func (h *History) Append(t Turn) {
	h.turns = append(h.turns, t)
	if len(h.turns) > h.max {
		h.turns = h.turns[len(h.turns)-h.max:]
	}
}

// Len returns the number of retained turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Turns returns a copy of the retained turns, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}
