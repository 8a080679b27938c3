package tileset

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported by Load. Match them with errors.Is.
var (
	ErrNotFound        = errors.New("tileset not found")
	ErrParse           = errors.New("malformed tileset document")
	ErrSchemaMismatch  = errors.New("tileset schema mismatch")
	ErrDuplicateTileID = errors.New("duplicate tile id")
	ErrMissingField    = errors.New("missing required field")
)

// noTile marks a LoadError that is not about a particular tile.
const noTile = -1

// LoadError describes why a descriptor could not be loaded.
type LoadError struct {
	Path   string
	Kind   error // One of the Err* kinds above
	TileID int   // -1 when the error is not tied to a tile
	Field  string
	Err    error // Underlying cause, may be nil
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.TileID != noTile {
		fmt.Fprintf(&b, " (tile %d", e.TileID)
		if e.Field != "" {
			fmt.Fprintf(&b, ", field %q", e.Field)
		}
		b.WriteString(")")
	} else if e.Field != "" {
		fmt.Fprintf(&b, " (field %q)", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short stable name for the error's kind, or "" when err
// is not a load error.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrParse):
		return "ParseError"
	case errors.Is(err, ErrSchemaMismatch):
		return "SchemaMismatch"
	case errors.Is(err, ErrDuplicateTileID):
		return "DuplicateTileId"
	case errors.Is(err, ErrMissingField):
		return "MissingField"
	default:
		return ""
	}
}

func newError(path string, kind error, cause error) *LoadError {
	return &LoadError{Path: path, Kind: kind, TileID: noTile, Err: cause}
}
