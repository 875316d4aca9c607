package image

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/jmylchreest/rickrack/internal/grid"
)

// DefaultCellSize is the edge length in pixels of one rendered board cell.
const DefaultCellSize = 32

// RenderBoard draws the board with every cell as a cell×cell square.
func RenderBoard(g grid.Grid, cell int) *image.RGBA {
	if cell < 1 {
		cell = DefaultCellSize
	}
	small := image.NewRGBA(image.Rect(0, 0, g.Col, g.Col))
	for y := 0; y < g.Col; y++ {
		for x := 0; x < g.Col; x++ {
			small.Set(x, y, g.At(x, y))
		}
	}

	size := g.Col * cell
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
	return out
}

// WriteBoard encodes the rendered board as PNG.
func WriteBoard(w io.Writer, g grid.Grid, cell int) error {
	if err := png.Encode(w, RenderBoard(g, cell)); err != nil {
		return fmt.Errorf("failed to encode board: %w", err)
	}
	return nil
}

// SaveBoard writes the rendered board to a PNG file.
func SaveBoard(path string, g grid.Grid, cell int) error {
	f, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create board file: %w", err)
	}
	if err := WriteBoard(f, g, cell); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close board file: %w", err)
	}
	return nil
}
