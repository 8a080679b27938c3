package tileset

import (
	"context"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samdwyer/tilesets/internal/telemetry"
)

// Loader reads tileset descriptors from a filesystem.
type Loader struct {
	fsys fs.FS // nil means the OS filesystem
	log  logrus.FieldLogger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader creates a loader reading from fsys. A nil fsys reads OS paths.
func NewLoader(fsys fs.FS, opts ...Option) *Loader {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	l := &Loader{fsys: fsys, log: discard}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, decodes and validates the descriptor at path on the OS
// filesystem.
func Load(ctx context.Context, path string) (*Descriptor, error) {
	return NewLoader(nil).Load(ctx, path)
}

// Load reads, decodes and validates the named descriptor. Errors carry one of
// the Err* kinds; no partial descriptor is ever returned.
func (l *Loader) Load(ctx context.Context, name string) (*Descriptor, error) {
	tracer := telemetry.Tracer("tileset")
	ctx, span := tracer.Start(ctx, "tileset.load")
	defer span.End()

	span.SetAttributes(attribute.String("tileset.source", name))

	d, err := l.load(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindName(err))
		l.log.WithFields(logrus.Fields{"path": name, "kind": KindName(err)}).WithError(err).Debug("tileset load failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("tileset.name", d.Name),
		attribute.String("tileset.format", d.Format.String()),
		attribute.Int("tileset.tile_count", d.TileCount),
		attribute.Int("tileset.solid_count", len(d.SolidIDs())),
	)
	l.log.WithFields(logrus.Fields{
		"path":   name,
		"name":   d.Name,
		"tiles":  d.TileCount,
		"format": d.Format.String(),
	}).Debug("tileset loaded")

	return d, nil
}

func (l *Loader) load(ctx context.Context, name string) (*Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Anything that leaves no readable document at name, such as a
	// directory or a permission error, is NotFound with the cause kept.
	data, err := l.read(name)
	if err != nil {
		return nil, newError(name, ErrNotFound, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := detectFormat(name, data)
	if err != nil {
		return nil, newError(name, ErrParse, err)
	}

	raw, err := decode(format, data)
	if err != nil {
		return nil, newError(name, ErrParse, err)
	}

	if err := check(name, raw); err != nil {
		return nil, err
	}

	d := build(raw)
	d.Source = name
	d.Format = format
	d.osPath = l.fsys == nil
	return d, nil
}

func (l *Loader) read(name string) ([]byte, error) {
	if l.fsys == nil {
		return os.ReadFile(name)
	}
	return fs.ReadFile(l.fsys, name)
}

// build converts a validated document into a Descriptor.
func build(raw *rawTileset) *Descriptor {
	d := &Descriptor{
		Name:         raw.Name,
		TileWidth:    *raw.TileWidth,
		TileHeight:   *raw.TileHeight,
		TileCount:    *raw.TileCount,
		Columns:      raw.Columns,
		Version:      raw.Version,
		TiledVersion: raw.TiledVersion,
		Properties:   properties(raw.Properties),
		Tiles:        make([]Tile, 0, len(raw.Tiles)),
		index:        make(map[int]int, len(raw.Tiles)),
	}
	if raw.Image != nil {
		d.Image = &Image{
			Source: raw.Image.Source,
			Width:  *raw.Image.Width,
			Height: *raw.Image.Height,
		}
	}

	for _, rt := range raw.Tiles {
		t := Tile{
			ID:          *rt.ID,
			ImageWidth:  *rt.Image.Width,
			ImageHeight: *rt.Image.Height,
			ImageSource: rt.Image.Source,
			Type:        rt.Type,
			Properties:  properties(rt.Properties),
		}
		if p, ok := t.Properties.Get(SolidProperty); ok {
			// Validated by check.
			t.Solid, _ = p.Bool()
		}

		d.index[t.ID] = len(d.Tiles)
		d.Tiles = append(d.Tiles, t)
	}

	return d
}

func properties(in []rawProperty) Properties {
	if len(in) == 0 {
		return nil
	}
	out := make(Properties, 0, len(in))
	for _, p := range in {
		out = append(out, Property{Name: p.Name, Type: normalizeType(p.Type), Value: p.Value})
	}
	return out
}
