// Package composite assembles a session's captures into a single booth strip.
package composite

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/nfnt/resize"
)

// Layout controls strip geometry. Zero values fall back to the defaults.
type Layout struct {
	CellWidth  int // width every capture is scaled to
	CellHeight int // height of each cell
	Margin     int // outer border and gutter between cells
}

const (
	defaultCellWidth  = 600
	defaultCellHeight = 450
	defaultMargin     = 20
)

func (l Layout) withDefaults() Layout {
	if l.CellWidth <= 0 {
		l.CellWidth = defaultCellWidth
	}
	if l.CellHeight <= 0 {
		l.CellHeight = defaultCellHeight
	}
	if l.Margin <= 0 {
		l.Margin = defaultMargin
	}
	return l
}

// Strip scales each capture into a cell and stacks the cells vertically on a
// white background, in the order given.
func Strip(captures []image.Image, layout Layout) (image.Image, error) {
	if len(captures) == 0 {
		return nil, errs.Validation("photos", "nothing to assemble")
	}
	l := layout.withDefaults()

	width := l.CellWidth + 2*l.Margin
	height := len(captures)*(l.CellHeight+l.Margin) + l.Margin
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	y := l.Margin
	for _, src := range captures {
		cell := resize.Thumbnail(uint(l.CellWidth), uint(l.CellHeight), src, resize.Lanczos3)
		b := cell.Bounds()
		// Center the scaled capture inside its cell.
		x := l.Margin + (l.CellWidth-b.Dx())/2
		dy := y + (l.CellHeight-b.Dy())/2
		r := image.Rect(x, dy, x+b.Dx(), dy+b.Dy())
		draw.Draw(canvas, r, cell, b.Min, draw.Src)
		y += l.CellHeight + l.Margin
	}
	return canvas, nil
}
