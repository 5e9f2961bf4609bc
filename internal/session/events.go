package session

// Outbound actions.
const (
	ActionInit      = "init"
	ActionFull      = "full"
	ActionUpdate    = "update"
	ActionGameOver  = "gameOver"
	ActionReset     = "reset"
	ActionChat      = "chatMessage"
	ActionCountdown = "countdown"
)

// Inbound actions. ActionChat is used in both directions.
const (
	ActionMove         = "move"
	ActionRequestReset = "requestReset"
)

type InitPayload struct {
	RoleMark string `json:"role_mark"`
}

type FullPayload struct{}

type UpdatePayload struct {
	Cells    []*string `json:"cells"`
	TurnMark string    `json:"turn_mark"`
}

type GameOverPayload struct {
	Winner string `json:"winner"`
}

// ResetPayload carries the recipient's role after the reset, null if unseated.
type ResetPayload struct {
	RoleMark *string `json:"role_mark"`
}

type ChatPayload struct {
	RoleMark string `json:"role_mark"`
	Text     string `json:"text"`
}

// CountdownPayload announces the seconds left before the board clears.
type CountdownPayload struct {
	Seconds int `json:"seconds"`
}

type MoveRequest struct {
	Index *int `json:"index"`
}

type ChatRequest struct {
	Text *string `json:"text"`
}
