package tileset

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all loaders; validator.Validate is safe for
// concurrent use once configured.
var validate = sync.OnceValue(newValidator)

func newValidator() *validator.Validate {
	v := validator.New()

	// Report Tiled attribute names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("tiled")
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("notblank", isNotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("relpath", isRelativePath); err != nil {
		panic(err)
	}
	return v
}

// isNotBlank rejects strings made only of whitespace.
func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// isRelativePath accepts paths that Tiled would resolve against the tileset
// directory. Both slash styles are rejected when rooted.
func isRelativePath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if p == "" {
		return true // "required" reports emptiness
	}
	if path.IsAbs(p) || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return false
	}
	return !strings.HasPrefix(p, `\`) && !hasDriveRoot(p)
}

// hasDriveRoot reports a Windows drive-rooted path such as C:\x or C:/x,
// whatever the host OS.
func hasDriveRoot(p string) bool {
	if len(p) < 3 || p[1] != ':' || (p[2] != '/' && p[2] != '\\') {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// check validates the decoded document and returns the first violation in
// source order: tileset attributes, then each tile, then the tile count.
func check(name string, raw *rawTileset) error {
	v := validate()

	if err := v.Struct(raw); err != nil {
		return fieldError(name, noTile, err)
	}

	seen := make(map[int]struct{}, len(raw.Tiles))
	for i := range raw.Tiles {
		t := &raw.Tiles[i]
		tileID := noTile
		if t.ID != nil {
			tileID = *t.ID
		}

		if err := v.Struct(t); err != nil {
			return fieldError(name, tileID, err)
		}

		if _, dup := seen[tileID]; dup {
			return &LoadError{Path: name, Kind: ErrDuplicateTileID, TileID: tileID, Field: "id"}
		}
		seen[tileID] = struct{}{}

		if err := checkSolid(t.Properties); err != nil {
			return &LoadError{Path: name, Kind: ErrSchemaMismatch, TileID: tileID, Field: SolidProperty, Err: err}
		}
	}

	if *raw.TileCount != len(raw.Tiles) {
		return &LoadError{
			Path:   name,
			Kind:   ErrSchemaMismatch,
			TileID: noTile,
			Field:  "tilecount",
			Err:    fmt.Errorf("tilecount is %d but %d tiles are defined", *raw.TileCount, len(raw.Tiles)),
		}
	}

	return nil
}

// checkSolid rejects a solid property whose value is not a boolean.
func checkSolid(props []rawProperty) error {
	for _, p := range props {
		if p.Name != SolidProperty {
			continue
		}
		if _, err := (Property{Name: p.Name, Value: p.Value}).Bool(); err != nil {
			return err
		}
	}
	return nil
}

// fieldError maps a validator failure onto a LoadError. Absent fields are
// MissingField; present fields with bad values are SchemaMismatch.
func fieldError(name string, tileID int, err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return &LoadError{Path: name, Kind: ErrSchemaMismatch, TileID: tileID, Err: err}
	}

	fe := ves[0]
	kind := ErrSchemaMismatch
	if fe.Tag() == "required" || fe.Tag() == "notblank" {
		kind = ErrMissingField
	}
	return &LoadError{
		Path:   name,
		Kind:   kind,
		TileID: tileID,
		Field:  fe.Field(),
		Err:    errors.New(describe(fe)),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "notblank":
		return fmt.Sprintf("%s is blank", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "relpath":
		return fmt.Sprintf("%s must be a relative path, got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
}
