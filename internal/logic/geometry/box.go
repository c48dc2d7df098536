package geometry

import "github.com/golang/geo/r3"

// Box is a cuboid standing on the board, aligned with its cells.
// The camera looks at the board from -Z, so the upper face lies at
// Z = -HeightCells*CellSize.
type Box struct {
	Board       Board
	Column      int // first cell column
	Row         int // first cell row
	WidthCells  int // extent along X
	DepthCells  int // extent along Y
	HeightCells int // extent along -Z
}

func (b Box) face(z float64) [4]r3.Vector {
	s := b.Board.CellSize
	x0 := float64(b.Column) * s
	y0 := float64(b.Row) * s
	x1 := float64(b.Column+b.WidthCells) * s
	y1 := float64(b.Row+b.DepthCells) * s
	return [4]r3.Vector{
		{X: x0, Y: y0, Z: z},
		{X: x1, Y: y0, Z: z},
		{X: x1, Y: y1, Z: z},
		{X: x0, Y: y1, Z: z},
	}
}

// Lower returns the four corners of the face resting on the board.
func (b Box) Lower() [4]r3.Vector {
	return b.face(0)
}

// Upper returns the four corners of the top face, in the same order as Lower.
func (b Box) Upper() [4]r3.Vector {
	return b.face(-float64(b.HeightCells) * b.Board.CellSize)
}

// Points returns Lower followed by Upper.
func (b Box) Points() []r3.Vector {
	lo, up := b.Lower(), b.Upper()
	return append(lo[:], up[:]...)
}
