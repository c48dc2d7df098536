package geometry

import "github.com/golang/geo/r3"

// Board describes a planar chessboard target by its inner-corner grid.
type Board struct {
	Columns  int     // inner corners per row
	Rows     int     // inner corners per column
	CellSize float64 // edge length of one square (meters)
}

// Len returns the number of reference points on the board.
func (b Board) Len() int {
	return b.Columns * b.Rows
}

// Points returns the board's inner corners in the Z=0 plane, row-major,
// with the origin at the first corner. Index r*Columns+c holds
// (c*CellSize, r*CellSize, 0), matching the order a chessboard detector
// reports corners in.
func (b Board) Points() []r3.Vector {
	if b.Columns <= 0 || b.Rows <= 0 {
		return nil
	}
	pts := make([]r3.Vector, 0, b.Len())
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Columns; c++ {
			pts = append(pts, r3.Vector{
				X: float64(c) * b.CellSize,
				Y: float64(r) * b.CellSize,
				Z: 0,
			})
		}
	}
	return pts
}
