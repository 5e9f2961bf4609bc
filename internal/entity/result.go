package entity

// Tally counts finished matches by verdict.
type Tally struct {
	XWins int64 `json:"x_wins"`
	OWins int64 `json:"o_wins"`
	Draws int64 `json:"draws"`
}

// Add counts one more match with the given verdict.
func (that *Tally) Add(verdict Verdict) {
	switch verdict {
	case VerdictX:
		that.XWins++
	case VerdictO:
		that.OWins++
	case VerdictDraw:
		that.Draws++
	}
}

func (that *Tally) Total() int64 {
	return that.XWins + that.OWins + that.Draws
}
