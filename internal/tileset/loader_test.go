package tileset

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/samdwyer/tilesets/data"
)

// writeDoc writes a document into a temp dir and returns its path.
func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadPotions(t *testing.T) {
	d, err := Load(context.Background(), filepath.Join("testdata", "Potions.tsx"))
	if err != nil {
		t.Fatalf("Failed to load Potions.tsx: %v", err)
	}

	if d.Name != "Potions" {
		t.Errorf("Expected name Potions, got %q", d.Name)
	}
	if d.TileWidth != 10 || d.TileHeight != 11 {
		t.Errorf("Expected 10x11 grid, got %dx%d", d.TileWidth, d.TileHeight)
	}
	if d.TileCount != 6 {
		t.Errorf("Expected tileCount 6, got %d", d.TileCount)
	}
	if len(d.Tiles) != d.TileCount {
		t.Fatalf("Expected %d tiles, got %d", d.TileCount, len(d.Tiles))
	}
	if d.Format != FormatXML {
		t.Errorf("Expected XML format, got %v", d.Format)
	}

	for i, tile := range d.Tiles {
		if tile.ID != i {
			t.Errorf("Tile %d: expected id %d in source order, got %d", i, i, tile.ID)
		}
		wantSolid := i == 3
		if tile.Solid != wantSolid {
			t.Errorf("Tile %d: expected solid=%v, got %v", i, wantSolid, tile.Solid)
		}
	}

	medipack := d.Tiles[3]
	if medipack.ImageWidth != 10 || medipack.ImageHeight != 10 {
		t.Errorf("Expected Medipack 10x10, got %dx%d", medipack.ImageWidth, medipack.ImageHeight)
	}
	if medipack.ImageSource != "NinjaAdventure/Items/Potion/Medipack.png" {
		t.Errorf("Unexpected Medipack source %q", medipack.ImageSource)
	}

	heart := d.Tiles[1]
	if heart.ImageWidth != 9 || heart.ImageHeight != 8 {
		t.Errorf("Expected Hear.png 9x8, got %dx%d", heart.ImageWidth, heart.ImageHeight)
	}

	if ids := d.SolidIDs(); len(ids) != 1 || ids[0] != 3 {
		t.Errorf("Expected solid ids [3], got %v", ids)
	}
}

func TestLoadEmbeddedFormatsAgree(t *testing.T) {
	loader := NewLoader(data.FS())
	ctx := context.Background()

	fromXML, err := loader.Load(ctx, data.PotionsTSX)
	if err != nil {
		t.Fatalf("Failed to load %s: %v", data.PotionsTSX, err)
	}
	fromJSON, err := loader.Load(ctx, data.PotionsJSON)
	if err != nil {
		t.Fatalf("Failed to load %s: %v", data.PotionsJSON, err)
	}

	if fromJSON.Format != FormatJSON {
		t.Errorf("Expected JSON format, got %v", fromJSON.Format)
	}
	if fromXML.Name != fromJSON.Name || fromXML.TileCount != fromJSON.TileCount {
		t.Fatalf("Header mismatch: %q/%d vs %q/%d", fromXML.Name, fromXML.TileCount, fromJSON.Name, fromJSON.TileCount)
	}
	if fromXML.TileWidth != fromJSON.TileWidth || fromXML.TileHeight != fromJSON.TileHeight {
		t.Errorf("Grid mismatch: %dx%d vs %dx%d", fromXML.TileWidth, fromXML.TileHeight, fromJSON.TileWidth, fromJSON.TileHeight)
	}

	for i := range fromXML.Tiles {
		x, j := fromXML.Tiles[i], fromJSON.Tiles[i]
		if x.ID != j.ID || x.ImageSource != j.ImageSource || x.ImageWidth != j.ImageWidth ||
			x.ImageHeight != j.ImageHeight || x.Solid != j.Solid {
			t.Errorf("Tile %d mismatch: %+v vs %+v", i, x, j)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		kind   error
		tileID int
		field  string
	}{
		{"duplicate id", "duplicate_id.tsx", ErrDuplicateTileID, 1, "id"},
		{"missing source", "missing_source.tsx", ErrMissingField, 1, "source"},
		{"count mismatch", "count_mismatch.tsx", ErrSchemaMismatch, -1, "tilecount"},
		{"malformed xml", "malformed.tsx", ErrParse, -1, ""},
		{"not found", "does_not_exist.tsx", ErrNotFound, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Load(context.Background(), filepath.Join("testdata", tt.path))
			if err == nil {
				t.Fatalf("Expected error, got descriptor %+v", d)
			}
			if d != nil {
				t.Errorf("Expected nil descriptor on error")
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("Expected %v, got %v", tt.kind, err)
			}

			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("Expected *LoadError, got %T", err)
			}
			if le.TileID != tt.tileID {
				t.Errorf("Expected tile id %d, got %d", tt.tileID, le.TileID)
			}
			if le.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, le.Field)
			}
		})
	}
}

func TestLoadNotFoundWrapsFSError(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.tsx"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected error to wrap fs.ErrNotExist, got %v", err)
	}
	if KindName(err) != "NotFound" {
		t.Errorf("Expected kind NotFound, got %q", KindName(err))
	}
}

func TestLoadDirectoryIsNotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(context.Background(), dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for a directory, got %v", err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Directory exists, error should not wrap fs.ErrNotExist: %v", err)
	}
	if KindName(err) != "NotFound" {
		t.Errorf("Expected kind NotFound, got %q", KindName(err))
	}
}

func TestLoadAcceptsColonInRelativeSource(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("a: is a drive name on Windows")
	}
	path := writeDoc(t, "colon.tsx", `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" height="8" source="a:b.png"/></tile>
</tileset>`)

	d, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.Tiles[0].ImageSource != "a:b.png" {
		t.Errorf("Unexpected source %q", d.Tiles[0].ImageSource)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		kind  error
		field string
	}{
		{
			name: "missing image element",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"/>
</tileset>`,
			kind:  ErrMissingField,
			field: "image",
		},
		{
			name: "missing width",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image height="8" source="a.png"/></tile>
</tileset>`,
			kind:  ErrMissingField,
			field: "width",
		},
		{
			name: "missing height",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" source="a.png"/></tile>
</tileset>`,
			kind:  ErrMissingField,
			field: "height",
		},
		{
			name: "missing id",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile><image width="8" height="8" source="a.png"/></tile>
</tileset>`,
			kind:  ErrMissingField,
			field: "id",
		},
		{
			name: "missing tilecount",
			doc: `<tileset name="x" tilewidth="8" tileheight="8">
 <tile id="0"><image width="8" height="8" source="a.png"/></tile>
</tileset>`,
			kind:  ErrMissingField,
			field: "tilecount",
		},
		{
			name: "zero image width",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image width="0" height="8" source="a.png"/></tile>
</tileset>`,
			kind:  ErrSchemaMismatch,
			field: "width",
		},
		{
			name: "negative id",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="-1"><image width="8" height="8" source="a.png"/></tile>
</tileset>`,
			kind:  ErrSchemaMismatch,
			field: "id",
		},
		{
			name: "zero tile width",
			doc: `<tileset name="x" tilewidth="0" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" height="8" source="a.png"/></tile>
</tileset>`,
			kind:  ErrSchemaMismatch,
			field: "tilewidth",
		},
		{
			name: "absolute source",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" height="8" source="/abs/a.png"/></tile>
</tileset>`,
			kind:  ErrSchemaMismatch,
			field: "source",
		},
		{
			name: "windows drive source",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" height="8" source="C:\art\a.png"/></tile>
</tileset>`,
			kind:  ErrSchemaMismatch,
			field: "source",
		},
		{
			name: "forward slash drive source",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" height="8" source="d:/art/a.png"/></tile>
</tileset>`,
			kind:  ErrSchemaMismatch,
			field: "source",
		},
		{
			name: "blank source",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" height="8" source="   "/></tile>
</tileset>`,
			kind:  ErrMissingField,
			field: "source",
		},
		{
			name: "solid is not a boolean",
			doc: `<tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0">
  <properties><property name="solid" type="bool" value="maybe"/></properties>
  <image width="8" height="8" source="a.png"/>
 </tile>
</tileset>`,
			kind:  ErrSchemaMismatch,
			field: "solid",
		},
		{
			name: "non-numeric attribute",
			doc: `<tileset name="x" tilewidth="eight" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" height="8" source="a.png"/></tile>
</tileset>`,
			kind: ErrParse,
		},
		{
			name: "wrong root element",
			doc:  `<map width="10" height="10"/>`,
			kind: ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDoc(t, "doc.tsx", tt.doc)
			_, err := Load(context.Background(), path)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("Expected %v, got %v", tt.kind, err)
			}

			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("Expected *LoadError, got %T", err)
			}
			if tt.field != "" && le.Field != tt.field {
				t.Errorf("Expected field %q, got %q (%v)", tt.field, le.Field, err)
			}
		})
	}
}

func TestLoadJSONValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind error
	}{
		{
			name: "duplicate id",
			doc: `{"name":"x","tilewidth":8,"tileheight":8,"tilecount":2,"tiles":[
				{"id":4,"image":"a.png","imagewidth":8,"imageheight":8},
				{"id":4,"image":"b.png","imagewidth":8,"imageheight":8}]}`,
			kind: ErrDuplicateTileID,
		},
		{
			name: "missing image",
			doc: `{"name":"x","tilewidth":8,"tileheight":8,"tilecount":1,"tiles":[
				{"id":0,"imagewidth":8,"imageheight":8}]}`,
			kind: ErrMissingField,
		},
		{
			name: "count mismatch",
			doc: `{"name":"x","tilewidth":8,"tileheight":8,"tilecount":3,"tiles":[
				{"id":0,"image":"a.png","imagewidth":8,"imageheight":8}]}`,
			kind: ErrSchemaMismatch,
		},
		{
			name: "truncated",
			doc:  `{"name":"x","tilewidth":8,`,
			kind: ErrParse,
		},
		{
			name: "map document",
			doc:  `{"type":"map","width":10,"height":10}`,
			kind: ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDoc(t, "doc.tsj", tt.doc)
			_, err := Load(context.Background(), path)
			if !errors.Is(err, tt.kind) {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestLoadSniffsFormat(t *testing.T) {
	xmlDoc := `  <tileset name="x" tilewidth="8" tileheight="8" tilecount="1">
 <tile id="0"><image width="8" height="8" source="a.png"/></tile>
</tileset>`
	jsonDoc := `{"name":"x","tilewidth":8,"tileheight":8,"tilecount":1,
		"tiles":[{"id":0,"image":"a.png","imagewidth":8,"imageheight":8}]}`

	ctx := context.Background()

	d, err := Load(ctx, writeDoc(t, "tiles.dat", xmlDoc))
	if err != nil {
		t.Fatalf("Failed to load sniffed XML: %v", err)
	}
	if d.Format != FormatXML {
		t.Errorf("Expected XML, got %v", d.Format)
	}

	d, err = Load(ctx, writeDoc(t, "tiles.dat", jsonDoc))
	if err != nil {
		t.Fatalf("Failed to load sniffed JSON: %v", err)
	}
	if d.Format != FormatJSON {
		t.Errorf("Expected JSON, got %v", d.Format)
	}

	_, err = Load(ctx, writeDoc(t, "tiles.dat", "tileset: yaml"))
	if !errors.Is(err, ErrParse) {
		t.Errorf("Expected ErrParse for unknown format, got %v", err)
	}

	_, err = Load(ctx, writeDoc(t, "tiles.dat", ""))
	if !errors.Is(err, ErrParse) {
		t.Errorf("Expected ErrParse for empty document, got %v", err)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, filepath.Join("testdata", "Potions.tsx"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if KindName(err) != "" {
		t.Errorf("Cancellation should not map to a load error kind, got %q", KindName(err))
	}
}

func TestImagePath(t *testing.T) {
	ctx := context.Background()

	d, err := NewLoader(os.DirFS("testdata")).Load(ctx, "properties.tsx")
	if err != nil {
		t.Fatalf("Failed to load properties.tsx: %v", err)
	}
	tile, _ := d.Tile(0)
	if got := d.ImagePath(tile); got != "../shared/heart.png" {
		t.Errorf("Expected ../shared/heart.png, got %q", got)
	}

	d, err = Load(ctx, filepath.Join("testdata", "Potions.tsx"))
	if err != nil {
		t.Fatalf("Failed to load Potions.tsx: %v", err)
	}
	want := filepath.Join("testdata", "NinjaAdventure", "Items", "Potion", "EmptyPot.png")
	if got := d.ImagePath(d.Tiles[0]); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestKindNameForLoadErrors(t *testing.T) {
	tests := []struct {
		kind error
		want string
	}{
		{ErrNotFound, "NotFound"},
		{ErrParse, "ParseError"},
		{ErrSchemaMismatch, "SchemaMismatch"},
		{ErrDuplicateTileID, "DuplicateTileId"},
		{ErrMissingField, "MissingField"},
	}

	for _, tt := range tests {
		err := &LoadError{Path: "x.tsx", Kind: tt.kind, TileID: noTile}
		if got := KindName(err); got != tt.want {
			t.Errorf("KindName(%v) = %q, want %q", tt.kind, got, tt.want)
		}
	}

	if KindName(errors.New("other")) != "" {
		t.Error("Expected empty kind for unrelated error")
	}
}

func TestLoadErrorMessage(t *testing.T) {
	err := &LoadError{Path: "a.tsx", Kind: ErrMissingField, TileID: 2, Field: "source"}
	want := `a.tsx: missing required field (tile 2, field "source")`
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestLoadAtlasImage(t *testing.T) {
	tests := []struct {
		name string
		file string
		doc  string
	}{
		{
			name: "xml",
			file: "atlas.tsx",
			doc: `<tileset name="terrain" tilewidth="8" tileheight="8" tilecount="1" columns="4">
 <image source="sheets/terrain.png" width="32" height="16"/>
 <tile id="0"><image width="8" height="8" source="grass.png"/></tile>
</tileset>`,
		},
		{
			name: "json",
			file: "atlas.json",
			doc: `{"name":"terrain","tilewidth":8,"tileheight":8,"tilecount":1,"columns":4,
				"image":"sheets/terrain.png","imagewidth":32,"imageheight":16,
				"tiles":[{"id":0,"image":"grass.png","imagewidth":8,"imageheight":8}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDoc(t, tt.file, tt.doc)
			d, err := Load(context.Background(), path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if d.Image == nil {
				t.Fatal("Expected atlas image")
			}
			if *d.Image != (Image{Source: "sheets/terrain.png", Width: 32, Height: 16}) {
				t.Errorf("Unexpected atlas image %+v", *d.Image)
			}
			want := filepath.Join(filepath.Dir(path), "sheets", "terrain.png")
			if got := d.AtlasPath(); got != want {
				t.Errorf("AtlasPath = %q, want %q", got, want)
			}
		})
	}
}

func TestLoadAtlasImageValidated(t *testing.T) {
	path := writeDoc(t, "atlas.tsx", `<tileset name="terrain" tilewidth="8" tileheight="8" tilecount="1" columns="4">
 <image source="sheets/terrain.png" height="16"/>
 <tile id="0"><image width="8" height="8" source="grass.png"/></tile>
</tileset>`)

	_, err := Load(context.Background(), path)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("Expected ErrMissingField, got %v", err)
	}
	var le *LoadError
	if !errors.As(err, &le) || le.Field != "width" || le.TileID != -1 {
		t.Errorf("Expected tileset-level width error, got %v", err)
	}
}

func TestLoadWithoutAtlas(t *testing.T) {
	d, err := NewLoader(data.FS()).Load(context.Background(), data.PotionsTSX)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.Image != nil || d.AtlasPath() != "" {
		t.Errorf("Image collection should have no atlas, got %+v", d.Image)
	}
}
