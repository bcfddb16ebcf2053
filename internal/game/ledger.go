package game

// Ledger is the running score of a table. It only ever goes up.
type Ledger struct {
	score int
}

// NewLedger returns a ledger starting at initial (e.g. a score restored from
// storage). Negative values are clamped to zero.
func NewLedger(initial int) *Ledger {
	if initial < 0 {
		initial = 0
	}
	return &Ledger{score: initial}
}

// Award adds one point.
func (l *Ledger) Award() {
	l.score++
}

// Score returns the current score.
func (l *Ledger) Score() int {
	return l.score
}
