// Package board implements the board model, move codec and move generation
// for the forced-capture variant.
package board

import "fmt"

// Coord addresses a board cell. Rank 0 is white's back rank, file 0 is the a-file.
type Coord struct {
	Rank int8
	File int8
}

// NewCoord creates a coordinate from rank and file (0-indexed).
func NewCoord(rank, file int) Coord {
	return Coord{Rank: int8(rank), File: int8(file)}
}

// IsValid returns true if both components lie in [0,7].
func (c Coord) IsValid() bool {
	return c.Rank >= 0 && c.Rank < 8 && c.File >= 0 && c.File < 8
}

// Add returns the coordinate shifted by the given deltas.
func (c Coord) Add(dRank, dFile int8) Coord {
	return Coord{Rank: c.Rank + dRank, File: c.File + dFile}
}

// Less orders coordinates rank first, then file.
func (c Coord) Less(o Coord) bool {
	if c.Rank != o.Rank {
		return c.Rank < o.Rank
	}
	return c.File < o.File
}

// String returns the algebraic notation for the coordinate (e.g., "e4").
func (c Coord) String() string {
	if !c.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+c.File, '1'+c.Rank)
}

// ParseCoord parses algebraic notation (e.g., "e4") into a Coord.
func ParseCoord(s string) (Coord, error) {
	if len(s) != 2 {
		return Coord{}, fmt.Errorf("%w: invalid square %q", ErrBadMove, s)
	}

	c := Coord{Rank: int8(s[1]) - '1', File: int8(s[0]) - 'a'}
	if !c.IsValid() {
		return Coord{}, fmt.Errorf("%w: invalid square %q", ErrBadMove, s)
	}
	return c, nil
}
