package entity

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"

	MarkX     Mark = "X"
	MarkO     Mark = "O"
	EmptyCell Mark = ""

	VerdictNone Verdict = ""
	VerdictX    Verdict = "X"
	VerdictO    Verdict = "O"
	VerdictDraw Verdict = "Draw"
)

const BoardSize = 9

// Phase is the coarse lifecycle stage of a match.
type Phase string

// Mark is the content of a single cell.
type Mark string

// Verdict is the terminal outcome of a board: a winning mark, a draw or none.
type Verdict string

// Board holds the nine cells in row-major order.
type Board [BoardSize]Mark

// Game is the shared match state. It is owned by the session controller.
type Game struct {
	Board      Board   `json:"board"`
	Turn       Role    `json:"turn"`
	Phase      Phase   `json:"phase"`
	Winner     Verdict `json:"winner,omitempty"`
	Generation uint64  `json:"generation"`
}

func NewGame() *Game {
	return &Game{
		Turn:  RoleFirst,
		Phase: PhaseWaiting,
	}
}

// Reset clears the board and hands the first move back to RoleFirst.
func (that *Game) Reset(complete bool) {
	that.Board = Board{}
	that.Turn = RoleFirst
	that.Winner = VerdictNone
	that.Generation++

	if complete {
		that.Phase = PhaseInProgress
	} else {
		that.Phase = PhaseWaiting
	}
}

// Start moves a waiting match into play once both seats are taken.
func (that *Game) Start() {
	if that.IsWaiting() {
		that.Phase = PhaseInProgress
	}
}

func (that *Game) IsWaiting() bool {
	return that.Phase == PhaseWaiting
}

func (that *Game) IsInProgress() bool {
	return that.Phase == PhaseInProgress
}

func (that *Game) IsFinished() bool {
	return that.Phase == PhaseFinished
}

// Finish records the verdict and closes the match for further moves.
func (that *Game) Finish(verdict Verdict) {
	that.Winner = verdict
	that.Phase = PhaseFinished
}

// Cells returns the board as wire values, with nil for empty cells.
func (that *Game) Cells() []*string {
	cells := make([]*string, BoardSize)
	for i, cell := range that.Board {
		if cell == EmptyCell {
			continue
		}

		mark := string(cell)
		cells[i] = &mark
	}

	return cells
}

// Snapshot returns a copy safe to hand out of the controller.
func (that *Game) Snapshot() Game {
	return *that
}
