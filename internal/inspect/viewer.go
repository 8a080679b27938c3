package inspect

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/tilesets/internal/telemetry"
	"github.com/samdwyer/tilesets/internal/tileset"
	"github.com/samdwyer/tilesets/internal/ui"
)

// action is a viewer command decoded from a key press.
type action int

const (
	actionNone action = iota
	actionQuit
	actionUp
	actionDown
	actionFirst
	actionLast
	actionToggleDetail
	actionBack
)

// Viewer browses a single tileset in the terminal.
type Viewer struct {
	screen   *ui.Screen
	renderer *ui.Renderer
	tileset  *tileset.Descriptor
	state    State
	selected int
	running  bool
}

// New creates a viewer on the terminal.
func New(d *tileset.Descriptor) (*Viewer, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen, d), nil
}

// NewWithScreen creates a viewer drawing to an existing screen.
func NewWithScreen(screen *ui.Screen, d *tileset.Descriptor) *Viewer {
	return &Viewer{
		screen:   screen,
		renderer: ui.NewRenderer(screen),
		tileset:  d,
		state:    StateBrowse,
		running:  true,
	}
}

// Run executes the viewer loop until the user quits or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("inspect")
	ctx, span := tracer.Start(ctx, "viewer.session")
	defer span.End()

	span.SetAttributes(
		attribute.String("tileset.name", v.tileset.Name),
		attribute.Int("tileset.tile_count", len(v.tileset.Tiles)),
	)

	// PollEvent blocks, so wake it when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = v.screen.Interrupt() })
	defer stop()

	for v.running {
		if err := ctx.Err(); err != nil {
			v.screen.Close()
			return err
		}

		v.Draw()
		v.handleInput()
	}

	v.screen.Close()
	return nil
}

// Draw renders the current state.
func (v *Viewer) Draw() {
	v.renderer.Render(v.tileset, ui.View{
		Selected: v.selected,
		Detail:   v.state == StateDetail,
	})
}

// Selected returns the index of the selected tile.
func (v *Viewer) Selected() int {
	return v.selected
}

// State returns the current viewer mode.
func (v *Viewer) State() State {
	return v.state
}

// handleInput processes a single input event.
func (v *Viewer) handleInput() {
	ev := v.screen.PollEvent()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		v.apply(keyAction(ev.Key(), ev.Rune()))
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventInterrupt:
		// Run checks ctx on the next pass
	case nil:
		// Screen finalized
		v.running = false
	}
}

// keyAction maps a key press to a viewer command.
func keyAction(key tcell.Key, r rune) action {
	switch key {
	case tcell.KeyEscape:
		return actionBack
	case tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyUp:
		return actionUp
	case tcell.KeyDown:
		return actionDown
	case tcell.KeyHome:
		return actionFirst
	case tcell.KeyEnd:
		return actionLast
	case tcell.KeyEnter:
		return actionToggleDetail
	case tcell.KeyRune:
		switch r {
		case 'q', 'Q':
			return actionQuit
		case 'k':
			return actionUp
		case 'j':
			return actionDown
		}
	}
	return actionNone
}

// apply updates the viewer state for a command.
func (v *Viewer) apply(a action) {
	last := len(v.tileset.Tiles) - 1

	switch a {
	case actionQuit:
		v.running = false
	case actionBack:
		// Esc leaves detail view first, then quits
		if v.state == StateDetail {
			v.state = StateBrowse
		} else {
			v.running = false
		}
	case actionUp:
		if v.selected > 0 {
			v.selected--
		}
	case actionDown:
		if v.selected < last {
			v.selected++
		}
	case actionFirst:
		v.selected = 0
	case actionLast:
		if last >= 0 {
			v.selected = last
		}
	case actionToggleDetail:
		if v.state == StateDetail {
			v.state = StateBrowse
		} else if last >= 0 {
			v.state = StateDetail
		}
	}
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	if v.screen != nil {
		v.screen.Close()
	}
}
