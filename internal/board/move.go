package board

import (
	"errors"
	"fmt"
)

// ErrBadMove is returned for move text that cannot be decoded.
var ErrBadMove = errors.New("bad move")

// Move is an ordered pair of coordinates. There are no promotion, castling or
// en passant flags in this variant.
type Move struct {
	From Coord
	To   Coord
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: Coord{-1, -1}, To: Coord{-1, -1}}

// NewMove creates a move between two coordinates.
func NewMove(from, to Coord) Move {
	return Move{From: from, To: to}
}

// IsValid returns true if both ends lie on the board.
func (m Move) IsValid() bool {
	return m.From.IsValid() && m.To.IsValid()
}

// Less orders moves by origin, then by destination.
func (m Move) Less(o Move) bool {
	if m.From != o.From {
		return m.From.Less(o.From)
	}
	return m.To.Less(o.To)
}

// Compare returns -1, 0 or +1, consistent with Less.
func (m Move) Compare(o Move) int {
	switch {
	case m == o:
		return 0
	case m.Less(o):
		return -1
	default:
		return 1
	}
}

// String returns the coordinate notation of the move (e.g., "e2e4").
func (m Move) String() string {
	if !m.IsValid() {
		return "0000"
	}
	return m.From.String() + m.To.String()
}

// ParseMove parses coordinate notation. The text must be exactly four
// characters: origin file, origin rank, target file, target rank.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 {
		return NoMove, fmt.Errorf("%w: a move must be formed of 4 letters, got %q", ErrBadMove, s)
	}

	from, err := ParseCoord(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseCoord(s[2:4])
	if err != nil {
		return NoMove, err
	}

	return NewMove(from, to), nil
}

// MustParseMove is like ParseMove but panics on error. Intended for tests and
// constant tables.
func MustParseMove(s string) Move {
	m, err := ParseMove(s)
	if err != nil {
		panic(err)
	}
	return m
}
