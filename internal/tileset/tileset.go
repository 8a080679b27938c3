// Package tileset loads Tiled tileset descriptors (.tsx and their JSON
// exports) into validated, read-only Descriptor values.
package tileset

import (
	"path"
	"path/filepath"
)

// Format identifies the serialization a descriptor was decoded from.
type Format int

const (
	// FormatXML is Tiled's native .tsx document.
	FormatXML Format = iota
	// FormatJSON is Tiled's JSON tileset export (.json / .tsj).
	FormatJSON
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Tile is a single image reference within a tileset.
type Tile struct {
	ID          int        `json:"id"`          // Unique within the tileset, 0-based
	ImageWidth  int        `json:"imageWidth"`  // Source image width in pixels
	ImageHeight int        `json:"imageHeight"` // Source image height in pixels
	ImageSource string     `json:"imageSource"` // Image path relative to the tileset file
	Solid       bool       `json:"solid"`       // Collision flag, false unless set in the source
	Type        string     `json:"type,omitempty"`
	Properties  Properties `json:"properties,omitempty"`
}

// Image is the single sheet of an atlas tileset, sliced into tiles by
// TileWidth, TileHeight and Columns.
type Image struct {
	Source string `json:"source"` // Relative to the tileset file
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Descriptor is a loaded tileset. It is not modified after Load returns and
// may be shared between goroutines without locking.
type Descriptor struct {
	Name         string     `json:"name"`
	TileWidth    int        `json:"tileWidth"`
	TileHeight   int        `json:"tileHeight"`
	TileCount    int        `json:"tileCount"`
	Columns      int        `json:"columns"`
	Version      string     `json:"version,omitempty"`
	TiledVersion string     `json:"tiledVersion,omitempty"`
	Properties   Properties `json:"properties,omitempty"`
	Image        *Image     `json:"image,omitempty"` // Set only for atlas tilesets
	Tiles        []Tile     `json:"tiles"`

	Source string `json:"source"` // Path the descriptor was loaded from
	Format Format `json:"-"`

	index  map[int]int // tile ID -> position in Tiles
	osPath bool        // Source is an OS path rather than an fs.FS name
}

// Tile returns the tile with the given ID.
func (d *Descriptor) Tile(id int) (Tile, bool) {
	i, ok := d.index[id]
	if !ok {
		return Tile{}, false
	}
	return d.Tiles[i], true
}

// SolidIDs returns the IDs of all solid tiles in source order.
func (d *Descriptor) SolidIDs() []int {
	ids := make([]int, 0)
	for _, t := range d.Tiles {
		if t.Solid {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// ImagePath resolves a tile's image source against the directory holding
// the descriptor, which is how Tiled interprets relative image paths.
func (d *Descriptor) ImagePath(t Tile) string {
	return d.resolve(t.ImageSource)
}

// AtlasPath resolves the atlas image like ImagePath, or returns "" when the
// tileset has no atlas.
func (d *Descriptor) AtlasPath() string {
	if d.Image == nil {
		return ""
	}
	return d.resolve(d.Image.Source)
}

func (d *Descriptor) resolve(src string) string {
	if d.osPath {
		return filepath.Join(filepath.Dir(d.Source), filepath.FromSlash(src))
	}
	return path.Join(path.Dir(d.Source), src)
}
