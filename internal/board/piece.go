package board

// Color represents the color of a piece or player.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

// Other returns the opposite color. NoColor stays NoColor.
func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// Kind is the piece type part of a Square. Each kind is a single bit so that
// squares can be tested with a mask.
type Kind uint16

const (
	NoKind Kind = 0
	Rook   Kind = 1 << (iota - 1)
	Knight
	Bishop
	Queen
	King
	Pawn
)

// String returns the piece kind name.
func (k Kind) String() string {
	switch k {
	case Rook:
		return "Rook"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Queen:
		return "Queen"
	case King:
		return "King"
	case Pawn:
		return "Pawn"
	default:
		return "None"
	}
}

// Square is the content of one board cell, encoded as a bit set:
// bits 0-5: piece kind (Rook=1, Knight=2, Bishop=4, Queen=8, King=16, Pawn=32)
// bit 6:    black piece
// bit 7:    white piece
// bit 8:    piece has moved (pawns lose the double step)
type Square uint16

const (
	blackBit Square = 64
	whiteBit Square = 128
	movedBit Square = 256

	kindMask = Square(Rook | Knight | Bishop | Queen | King | Pawn)
	sideMask = blackBit | whiteBit
)

// Empty is an unoccupied square.
const Empty Square = 0

// NewSquare creates an unmoved piece of the given kind and color.
func NewSquare(k Kind, c Color) Square {
	sq := Square(k) & kindMask
	switch c {
	case White:
		sq |= whiteBit
	case Black:
		sq |= blackBit
	}
	return sq
}

// Kind returns the piece kind on the square.
func (s Square) Kind() Kind {
	return Kind(s & kindMask)
}

// Color returns the side owning the piece on the square.
func (s Square) Color() Color {
	switch {
	case s&whiteBit != 0:
		return White
	case s&blackBit != 0:
		return Black
	default:
		return NoColor
	}
}

// IsEmpty returns true if no piece stands on the square.
func (s Square) IsEmpty() bool {
	return s == Empty
}

// Is returns true if the square holds a piece of color c.
func (s Square) Is(c Color) bool {
	switch c {
	case White:
		return s&whiteBit != 0
	case Black:
		return s&blackBit != 0
	default:
		return false
	}
}

// HasMoved reports whether the piece has moved since the game started.
func (s Square) HasMoved() bool {
	return s&movedBit != 0
}

// Moved returns the square with the has-moved flag set.
func (s Square) Moved() Square {
	return s | movedBit
}

// String returns the FEN-like character for the piece.
// Uppercase for white, lowercase for black, '.' for empty.
func (s Square) String() string {
	var c byte
	switch s.Kind() {
	case Rook:
		c = 'r'
	case Knight:
		c = 'n'
	case Bishop:
		c = 'b'
	case Queen:
		c = 'q'
	case King:
		c = 'k'
	case Pawn:
		c = 'p'
	default:
		return "."
	}
	if s.Is(White) {
		c -= 'a' - 'A'
	}
	return string(c)
}
