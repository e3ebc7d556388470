package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/keymap"
)

// renderGrid draws the bindings of layer as rows of equal-width cells. While
// the layer is undecided the base layer is drawn dimmed, since nothing is sent.
func renderGrid(km *keymap.Keymap, layer gesture.Layer, tracked gesture.Keycode) string {
	if km == nil {
		return ""
	}
	shown := layer
	dim := !layer.Active()
	if dim {
		shown = gesture.LayerBase
	}
	rows := km.Rows(shown)
	width := cellWidth(rows)

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, b := range row {
			label := runewidth.FillRight(runewidth.Truncate(b.Label(), width, ""), width)
			cells = append(cells, cellStyle(b, tracked, dim).Render(label))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return gridStyle.Render(strings.Join(lines, "\n"))
}

func cellStyle(b keymap.Binding, tracked gesture.Keycode, dim bool) lipgloss.Style {
	switch {
	case b.IsFn():
		return fnCellStyle
	case dim:
		return dimCellStyle
	case b.Kind == keymap.KindKey && tracked != 0 && gesture.Keycode(b.Code) == tracked:
		return trackedCellStyle
	case b.Kind == keymap.KindNone:
		return emptyCellStyle
	default:
		return keyCellStyle
	}
}

// cellWidth is the widest label in rows, capped so an 11-column grid still
// fits an 80-column terminal.
func cellWidth(rows [][]keymap.Binding) int {
	width := 1
	for _, row := range rows {
		for _, b := range row {
			if w := runewidth.StringWidth(b.Label()); w > width {
				width = w
			}
		}
	}
	if width > maxCellWidth {
		width = maxCellWidth
	}
	return width
}
