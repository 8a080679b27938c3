// Package inspect provides the interactive tileset viewer.
package inspect

// State represents the current viewer mode.
type State int

const (
	// StateBrowse lists every tile with the selection highlighted.
	StateBrowse State = iota
	// StateDetail shows all properties of the selected tile.
	StateDetail
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateBrowse:
		return "browse"
	case StateDetail:
		return "detail"
	default:
		return "unknown"
	}
}
