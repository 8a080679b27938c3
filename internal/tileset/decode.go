package tileset

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"
)

// rawTileset is the format-neutral shape both decoders produce. Pointer
// fields distinguish an absent attribute from a zero value.
type rawTileset struct {
	Name         string        `tiled:"name"`
	Version      string        `tiled:"version"`
	TiledVersion string        `tiled:"tiledversion"`
	TileWidth    *int          `tiled:"tilewidth" validate:"required,gt=0"`
	TileHeight   *int          `tiled:"tileheight" validate:"required,gt=0"`
	TileCount    *int          `tiled:"tilecount" validate:"required,gt=0"`
	Columns      int           `tiled:"columns" validate:"gte=0"`
	Properties   []rawProperty `tiled:"properties" validate:"dive"`
	Image        *rawImage     `tiled:"image"` // Atlas; validated whenever present
	Tiles        []rawTile     `tiled:"tile" validate:"-"`
}

type rawTile struct {
	ID         *int          `tiled:"id" validate:"required,gte=0"`
	Type       string        `tiled:"type"`
	Image      *rawImage     `tiled:"image" validate:"required"`
	Properties []rawProperty `tiled:"properties" validate:"dive"`
}

type rawImage struct {
	Source string `tiled:"source" validate:"required,notblank,relpath"`
	Width  *int   `tiled:"width" validate:"required,gt=0"`
	Height *int   `tiled:"height" validate:"required,gt=0"`
}

type rawProperty struct {
	Name  string `tiled:"name" validate:"required"`
	Type  string `tiled:"type"`
	Value string `tiled:"value"`
}

// detectFormat picks a decoder from the file extension, falling back to the
// first non-blank byte of the document.
func detectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/"))) {
	case ".tsx", ".xml":
		return FormatXML, nil
	case ".tsj", ".json":
		return FormatJSON, nil
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	switch {
	case len(trimmed) == 0:
		return 0, errors.New("empty document")
	case trimmed[0] == '<':
		return FormatXML, nil
	case trimmed[0] == '{':
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unrecognized document starting with %q", trimmed[0])
	}
}

func decode(format Format, data []byte) (*rawTileset, error) {
	switch format {
	case FormatXML:
		return decodeXML(data)
	case FormatJSON:
		return decodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}
}

// =============================================================================
// TSX (XML)
// =============================================================================

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"` // Multi-line string values are written as text
}

type xmlImage struct {
	Source string `xml:"source,attr"`
	Width  *int   `xml:"width,attr"`
	Height *int   `xml:"height,attr"`
}

type xmlTile struct {
	ID         *int          `xml:"id,attr"`
	Type       string        `xml:"type,attr"`
	Class      string        `xml:"class,attr"`
	Image      *xmlImage     `xml:"image"`
	Properties []xmlProperty `xml:"properties>property"`
}

type xmlTileset struct {
	XMLName      xml.Name      `xml:"tileset"`
	Version      string        `xml:"version,attr"`
	TiledVersion string        `xml:"tiledversion,attr"`
	Name         string        `xml:"name,attr"`
	TileWidth    *int          `xml:"tilewidth,attr"`
	TileHeight   *int          `xml:"tileheight,attr"`
	TileCount    *int          `xml:"tilecount,attr"`
	Columns      int           `xml:"columns,attr"`
	Properties   []xmlProperty `xml:"properties>property"`
	Image        *xmlImage     `xml:"image"`
	Tiles        []xmlTile     `xml:"tile"`
}

func decodeXML(data []byte) (*rawTileset, error) {
	var doc xmlTileset
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	raw := &rawTileset{
		Name:         doc.Name,
		Version:      doc.Version,
		TiledVersion: doc.TiledVersion,
		TileWidth:    doc.TileWidth,
		TileHeight:   doc.TileHeight,
		TileCount:    doc.TileCount,
		Columns:      doc.Columns,
		Properties:   xmlProperties(doc.Properties),
		Tiles:        make([]rawTile, 0, len(doc.Tiles)),
	}
	if doc.Image != nil {
		raw.Image = &rawImage{
			Source: doc.Image.Source,
			Width:  doc.Image.Width,
			Height: doc.Image.Height,
		}
	}

	for _, t := range doc.Tiles {
		tile := rawTile{
			ID:         t.ID,
			Type:       firstNonEmpty(t.Class, t.Type),
			Properties: xmlProperties(t.Properties),
		}
		if t.Image != nil {
			tile.Image = &rawImage{
				Source: t.Image.Source,
				Width:  t.Image.Width,
				Height: t.Image.Height,
			}
		}
		raw.Tiles = append(raw.Tiles, tile)
	}

	return raw, nil
}

func xmlProperties(in []xmlProperty) []rawProperty {
	if len(in) == 0 {
		return nil
	}
	out := make([]rawProperty, 0, len(in))
	for _, p := range in {
		value := p.Value
		if value == "" && strings.TrimSpace(p.Text) != "" {
			value = p.Text
		}
		out = append(out, rawProperty{Name: p.Name, Type: p.Type, Value: value})
	}
	return out
}

// =============================================================================
// JSON export
// =============================================================================

type jsonProperty struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type jsonTile struct {
	ID          *int           `json:"id"`
	Type        string         `json:"type"`
	Class       string         `json:"class"`
	Image       *string        `json:"image"`
	ImageWidth  *int           `json:"imagewidth"`
	ImageHeight *int           `json:"imageheight"`
	Properties  []jsonProperty `json:"properties"`
}

type jsonTileset struct {
	Type         string          `json:"type"`
	Version      json.RawMessage `json:"version"` // A number in old exports, a string since 1.6
	TiledVersion string          `json:"tiledversion"`
	Name         string          `json:"name"`
	TileWidth    *int            `json:"tilewidth"`
	TileHeight   *int            `json:"tileheight"`
	TileCount    *int            `json:"tilecount"`
	Columns      int             `json:"columns"`
	Properties   []jsonProperty  `json:"properties"`
	Image        *string         `json:"image"`
	ImageWidth   *int            `json:"imagewidth"`
	ImageHeight  *int            `json:"imageheight"`
	Tiles        []jsonTile      `json:"tiles"`
}

func decodeJSON(data []byte) (*rawTileset, error) {
	var doc jsonTileset
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Type != "" && doc.Type != "tileset" {
		return nil, fmt.Errorf("expected a tileset document, got type %q", doc.Type)
	}

	raw := &rawTileset{
		Name:         doc.Name,
		Version:      jsonText(doc.Version),
		TiledVersion: doc.TiledVersion,
		TileWidth:    doc.TileWidth,
		TileHeight:   doc.TileHeight,
		TileCount:    doc.TileCount,
		Columns:      doc.Columns,
		Properties:   jsonProperties(doc.Properties),
		Tiles:        make([]rawTile, 0, len(doc.Tiles)),
		Image:        jsonImage(doc.Image, doc.ImageWidth, doc.ImageHeight),
	}

	for _, t := range doc.Tiles {
		raw.Tiles = append(raw.Tiles, rawTile{
			ID:         t.ID,
			Type:       firstNonEmpty(t.Class, t.Type),
			Image:      jsonImage(t.Image, t.ImageWidth, t.ImageHeight),
			Properties: jsonProperties(t.Properties),
		})
	}

	return raw, nil
}

// jsonImage gathers the flattened image keys of the JSON export. It returns
// nil only when all three are absent.
func jsonImage(source *string, width, height *int) *rawImage {
	if source == nil && width == nil && height == nil {
		return nil
	}
	img := &rawImage{Width: width, Height: height}
	if source != nil {
		img.Source = *source
	}
	return img
}

func jsonProperties(in []jsonProperty) []rawProperty {
	if len(in) == 0 {
		return nil
	}
	out := make([]rawProperty, 0, len(in))
	for _, p := range in {
		out = append(out, rawProperty{Name: p.Name, Type: p.Type, Value: jsonText(p.Value)})
	}
	return out
}

// jsonText renders a raw JSON value as property text: strings are unquoted,
// everything else keeps its literal form.
func jsonText(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
