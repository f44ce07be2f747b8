package board

// State classifies a position.
type State uint8

const (
	// Unknown means the position has not been expanded yet.
	Unknown State = iota
	// NotAWin is the counting result when both sides still have pieces.
	// It never outlives classification.
	NotAWin
	InProgress
	Draw
	WhiteWins
	BlackWins
)

// Terminal returns true for finished games.
func (s State) Terminal() bool {
	return s == Draw || s == WhiteWins || s == BlackWins
}

// Winner returns the winning side of a decided game, NoColor otherwise.
func (s State) Winner() Color {
	switch s {
	case WhiteWins:
		return White
	case BlackWins:
		return Black
	default:
		return NoColor
	}
}

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case NotAWin:
		return "NotAWin"
	case InProgress:
		return "InProgress"
	case Draw:
		return "Draw"
	case WhiteWins:
		return "WhiteWins"
	case BlackWins:
		return "BlackWins"
	default:
		return "Invalid"
	}
}
