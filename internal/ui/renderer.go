package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/tilesets/internal/tileset"
)

const (
	headerRows = 2 // title + column header
	footerRows = 2 // selected tile properties + key help

	swatchRune = '█'
	colorProp  = "color"
)

// View describes what the renderer should show.
type View struct {
	Selected int  // Index into Descriptor.Tiles
	Detail   bool // Show every property of the selected tile
}

// Renderer handles drawing a tileset to the screen.
type Renderer struct {
	screen *Screen
	top    int // First tile row currently visible
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Render draws the tile table and the selected tile's properties.
func (r *Renderer) Render(d *tileset.Descriptor, view View) {
	r.screen.Clear()
	width, height := r.screen.Size()

	title := fmt.Sprintf("%s  %dx%d  %d tiles  (%s)", d.Name, d.TileWidth, d.TileHeight, d.TileCount, d.Format)
	r.drawText(0, 0, width, title, tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true))
	r.drawText(0, 1, width, "   ID  SIZE    SOURCE", tcell.StyleDefault.Foreground(tcell.ColorDarkGray))

	if view.Detail && view.Selected >= 0 && view.Selected < len(d.Tiles) {
		r.renderDetail(d.Tiles[view.Selected], width, height)
	} else {
		r.renderTable(d, view.Selected, width, height)
	}

	r.drawText(0, height-1, width, "up/down select  enter details  q quit", tcell.StyleDefault.Foreground(tcell.ColorDarkGray))
	r.screen.Show()
}

func (r *Renderer) renderTable(d *tileset.Descriptor, selected, width, height int) {
	rows := height - headerRows - footerRows
	if rows < 1 {
		return
	}

	// Scroll just enough to keep the selection visible.
	if selected < r.top {
		r.top = selected
	}
	if selected >= r.top+rows {
		r.top = selected - rows + 1
	}
	if r.top < 0 {
		r.top = 0
	}

	for i := 0; i < rows && r.top+i < len(d.Tiles); i++ {
		idx := r.top + i
		tile := d.Tiles[idx]
		y := headerRows + i

		style := r.tileStyle(tile)
		if idx == selected {
			style = style.Reverse(true)
		}

		r.drawSwatch(0, y, tile)
		line := fmt.Sprintf("%3d  %-7s %s", tile.ID, fmt.Sprintf("%dx%d", tile.ImageWidth, tile.ImageHeight), tile.ImageSource)
		if tile.Solid {
			line += "  [solid]"
		}
		r.drawText(2, y, width, line, style)
	}

	if selected >= 0 && selected < len(d.Tiles) {
		r.drawText(0, height-2, width, summarize(d.Tiles[selected].Properties), tcell.StyleDefault.Foreground(tcell.ColorGray))
	}
}

func (r *Renderer) renderDetail(tile tileset.Tile, width, height int) {
	lines := []string{
		fmt.Sprintf("id      %d", tile.ID),
		fmt.Sprintf("image   %s", tile.ImageSource),
		fmt.Sprintf("size    %dx%d", tile.ImageWidth, tile.ImageHeight),
		fmt.Sprintf("solid   %v", tile.Solid),
	}
	if tile.Type != "" {
		lines = append(lines, fmt.Sprintf("type    %s", tile.Type))
	}
	for _, p := range tile.Properties {
		lines = append(lines, fmt.Sprintf("  %s (%s) = %s", p.Name, p.Type, strings.ReplaceAll(p.Value, "\n", `\n`)))
	}

	for i, line := range lines {
		y := headerRows + i
		if y >= height-footerRows {
			break
		}
		r.drawText(2, y, width, line, tcell.StyleDefault)
	}
}

// tileStyle returns the row style for a tile: solid tiles stand out.
func (r *Renderer) tileStyle(tile tileset.Tile) tcell.Style {
	if tile.Solid {
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
	return tcell.StyleDefault.Foreground(tcell.ColorWhite)
}

// drawSwatch draws a colored block for tiles carrying a color property.
func (r *Renderer) drawSwatch(x, y int, tile tileset.Tile) {
	p, ok := tile.Properties.Get(colorProp)
	if !ok {
		return
	}
	color, err := ParseHexColor(p.Value)
	if err != nil {
		return
	}
	r.screen.SetContent(x, y, swatchRune, tcell.StyleDefault.Foreground(color))
}

func (r *Renderer) drawText(x, y, width int, text string, style tcell.Style) {
	for _, ch := range text {
		if x >= width {
			return
		}
		r.screen.SetContent(x, y, ch, style)
		x++
	}
}

func summarize(props tileset.Properties) string {
	if len(props) == 0 {
		return "no properties"
	}
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, fmt.Sprintf("%s=%s", p.Name, strings.ReplaceAll(p.Value, "\n", " ")))
	}
	return strings.Join(parts, "  ")
}
