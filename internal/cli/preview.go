package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/grid"
)

// previewFlag is the tri-state --preview flag: unset means "when stdout is
// a terminal".
const previewFlag = "preview"

func addPreviewFlag(cmd *cobra.Command) {
	cmd.Flags().Bool(previewFlag, false, "show colour swatches (default: when stdout is a terminal)")
}

// previewEnabled resolves --preview against the command's output.
func previewEnabled(cmd *cobra.Command) bool {
	if cmd.Flags().Changed(previewFlag) {
		on, _ := cmd.Flags().GetBool(previewFlag)
		return on
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// slotTable renders colours one per row with their HSV components.
func slotTable(colors []colour.Color, preview bool) string {
	headers := []string{"Slot", "Hex", "H", "S", "V"}
	if preview {
		headers = append(headers, "Swatch")
	}
	table := NewTable(headers)
	for i, c := range colors {
		row := []string{
			fmt.Sprint(i),
			c.Hex(),
			fmt.Sprintf("%.1f", c.H()),
			fmt.Sprintf("%.3f", c.S()),
			fmt.Sprintf("%.3f", c.V()),
		}
		if preview {
			row = append(row, colour.ColourPreviewWithText(c, fmt.Sprint(i), 8))
		}
		table.AddRow(row)
	}
	return table.Render()
}

// writeBoard prints a board either as swatches or as rows of hex codes.
func writeBoard(w io.Writer, g grid.Grid, preview bool) {
	for y := 0; y < g.Col; y++ {
		cells := make([]string, g.Col)
		for x := 0; x < g.Col; x++ {
			c := g.At(x, y)
			if preview {
				cells[x] = colour.ColourPreview(c, 2)
			} else {
				cells[x] = c.Hex()
			}
		}
		sep := " "
		if preview {
			sep = ""
		}
		fmt.Fprintln(w, strings.Join(cells, sep))
	}
}
