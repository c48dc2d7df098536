package geometry

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const epsilon = 1e-9 // tolerance for float comparisons (meters)

func TestBoard_Chessboard10x7(t *testing.T) {
	b := Board{Columns: 10, Rows: 7, CellSize: 0.025}
	pts := b.Points()

	if len(pts) != 70 {
		t.Fatalf("len(Points()) = %d, want 70", len(pts))
	}
	cases := []struct {
		index int
		want  r3.Vector
	}{
		{0, r3.Vector{X: 0, Y: 0, Z: 0}},
		{9, r3.Vector{X: 0.225, Y: 0, Z: 0}},
		{10, r3.Vector{X: 0, Y: 0.025, Z: 0}},
		{69, r3.Vector{X: 0.225, Y: 0.15, Z: 0}},
	}
	opt := cmpopts.EquateApprox(0, epsilon)
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, pts[tc.index], opt); diff != "" {
			t.Errorf("point %d mismatch (-want +got):\n%s", tc.index, diff)
		}
	}
}

func TestBoard_RowMajorOrder(t *testing.T) {
	grids := []struct {
		name       string
		cols, rows int
		cell       float64
	}{
		{"1x1", 1, 1, 1},
		{"3x2", 3, 2, 0.5},
		{"9x6", 9, 6, 0.03},
		{"4x11", 4, 11, 0.1},
	}
	for _, g := range grids {
		t.Run(g.name, func(t *testing.T) {
			b := Board{Columns: g.cols, Rows: g.rows, CellSize: g.cell}
			pts := b.Points()
			if len(pts) != g.cols*g.rows {
				t.Fatalf("len = %d, want %d", len(pts), g.cols*g.rows)
			}
			for r := 0; r < g.rows; r++ {
				for c := 0; c < g.cols; c++ {
					p := pts[r*g.cols+c]
					want := r3.Vector{X: float64(c) * g.cell, Y: float64(r) * g.cell}
					if p.Distance(want) > epsilon {
						t.Errorf("(c=%d,r=%d) = %v, want %v", c, r, p, want)
					}
					if p.Z != 0 {
						t.Errorf("(c=%d,r=%d) Z = %v, want 0", c, r, p.Z)
					}
				}
			}
		})
	}
}

func TestBoard_EmptyGrid(t *testing.T) {
	if pts := (Board{Columns: 0, Rows: 7, CellSize: 1}).Points(); len(pts) != 0 {
		t.Errorf("expected no points for zero columns, got %d", len(pts))
	}
}

func TestBox_Faces(t *testing.T) {
	box := Box{
		Board:       Board{Columns: 10, Rows: 7, CellSize: 0.025},
		Column:      4,
		Row:         2,
		WidthCells:  1,
		DepthCells:  2,
		HeightCells: 1,
	}
	wantLower := [4]r3.Vector{
		{X: 0.1, Y: 0.05, Z: 0},
		{X: 0.125, Y: 0.05, Z: 0},
		{X: 0.125, Y: 0.1, Z: 0},
		{X: 0.1, Y: 0.1, Z: 0},
	}
	opt := cmpopts.EquateApprox(0, epsilon)
	if diff := cmp.Diff(wantLower, box.Lower(), opt); diff != "" {
		t.Errorf("Lower() mismatch (-want +got):\n%s", diff)
	}
	up := box.Upper()
	for i, p := range up {
		if p.X != wantLower[i].X || p.Y != wantLower[i].Y {
			t.Errorf("upper[%d] XY = (%v,%v), want (%v,%v)", i, p.X, p.Y, wantLower[i].X, wantLower[i].Y)
		}
		if p.Z != -0.025 {
			t.Errorf("upper[%d] Z = %v, want -0.025", i, p.Z)
		}
	}
	if n := len(box.Points()); n != 8 {
		t.Errorf("len(Points()) = %d, want 8", n)
	}
}
