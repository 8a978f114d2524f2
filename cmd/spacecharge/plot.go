package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/fieldmesh/internal/mesh"
)

// fieldSlice adapts one component grid's mid-plane to plotter.GridXYZ.
// Sample coordinates honor the component's staggering, so cell-centered
// axes plot at half-cell offsets.
type fieldSlice struct {
	g    *mesh.Grid
	box  mesh.Box // staggered domain range of the plotted plane
	kmid int
	dx   [mesh.MaxDims]float64
}

func (s *fieldSlice) Dims() (int, int) { return s.box.Extent(0), s.box.Extent(1) }

func (s *fieldSlice) Z(c, r int) float64 {
	iv := mesh.IntVect{s.box.Lo[0] + c, s.box.Lo[1] + r, s.kmid}
	blk := s.g.BlockAt(iv)
	if blk == nil {
		return 0
	}
	return blk.At(iv, 0)
}

func (s *fieldSlice) coord(axis, i int) float64 {
	off := 0.5
	if s.g.Stagger[axis] {
		off = 0
	}
	return (float64(s.box.Lo[axis]+i) + off) * s.dx[axis]
}

func (s *fieldSlice) X(c int) float64 { return s.coord(0, c) }
func (s *fieldSlice) Y(r int) float64 { return s.coord(1, r) }

// plotFieldSlice writes a heatmap of the component grid's mid-plane (the
// full plane in 2D). 1D runs have nothing useful to raster and are skipped.
func plotFieldSlice(path string, geom *mesh.Geometry, g *mesh.Grid) error {
	if geom.NDims < 2 {
		return nil
	}
	dom := geom.DomainBox(0).ToStagger(g.Stagger)
	kmid := 0
	if geom.NDims == 3 {
		kmid = (dom.Lo[2] + dom.Hi[2]) / 2
	}
	slice := &fieldSlice{g: g, box: dom, kmid: kmid, dx: geom.CellSize(0)}

	p := plot.New()
	p.Title.Text = "E-field slice"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "axis 1 (m)"

	hm := plotter.NewHeatMap(slice, moreland.SmoothBlueRed().Palette(255))
	p.Add(hm)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
