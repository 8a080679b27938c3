// Package main is the entry point for tsxinspect, which loads and validates
// Tiled tilesets and optionally browses them in the terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/samdwyer/tilesets/data"
	"github.com/samdwyer/tilesets/internal/config"
	"github.com/samdwyer/tilesets/internal/inspect"
	"github.com/samdwyer/tilesets/internal/logging"
	"github.com/samdwyer/tilesets/internal/telemetry"
	"github.com/samdwyer/tilesets/internal/tileset"
)

type options struct {
	json     bool
	dump     bool
	preview  bool
	embedded bool
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: tsxinspect [flags] <tileset> [tileset...]")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	var opts options
	flag.BoolVar(&opts.json, "json", false, "Print each tileset as JSON")
	flag.BoolVar(&opts.dump, "dump", false, "Print a Go value dump of each tileset")
	flag.BoolVar(&opts.preview, "preview", false, "Browse the first tileset in the terminal")
	flag.BoolVar(&opts.embedded, "embedded", false, "Load from the tilesets compiled into the binary")
	flag.Usage = printUsage
	flag.Parse()

	names := flag.Args()
	if len(names) == 0 {
		if !opts.embedded {
			printUsage()
			os.Exit(2)
		}
		names = []string{data.PotionsTSX}
	}

	os.Exit(execute(opts, names))
}

// execute wires configuration, logging and telemetry around run and returns
// the process exit code.
func execute(opts options, names []string) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Printf("Failed to set up logging: %v", err)
		return 1
	}

	ctx := context.Background()

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.WithError(err).Warn("Telemetry setup failed, continuing without tracing")
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				logger.WithError(err).Error("Error shutting down telemetry")
			}
		}()
	}

	if err := run(ctx, cfg, logger, opts, names, os.Stdout); err != nil {
		logger.WithField("kind", tileset.KindName(err)).WithError(err).Error("tsxinspect failed")
		return 1
	}
	return 0
}

// run loads every named tileset through one registry and prints each.
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts options, names []string, out io.Writer) error {
	var loader *tileset.Loader
	if opts.embedded {
		loader = tileset.NewLoader(data.FS(), tileset.WithLogger(logger))
	} else {
		loader = tileset.NewLoader(nil, tileset.WithLogger(logger))
		names = resolve(cfg.Assets.Root, names)
	}

	registry, err := tileset.NewRegistry(loader, cfg.Assets.CacheMaxCost)
	if err != nil {
		return err
	}
	defer registry.Close()

	loaded := make([]*tileset.Descriptor, 0, len(names))
	for _, name := range names {
		d, err := registry.Get(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load tileset %s: %w", name, err)
		}
		if err := printTileset(out, d, opts); err != nil {
			return err
		}
		loaded = append(loaded, d)
	}

	if opts.preview {
		v, err := inspect.New(loaded[0])
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		return v.Run(ctx)
	}
	return nil
}

// resolve joins relative names onto the asset root.
func resolve(root string, names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		if filepath.IsAbs(name) {
			out[i] = name
			continue
		}
		out[i] = filepath.Join(root, name)
	}
	return out
}

func printTileset(out io.Writer, d *tileset.Descriptor, opts options) error {
	switch {
	case opts.json:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case opts.dump:
		spew.Fdump(out, d)
		return nil
	}

	fmt.Fprintf(out, "%s: %s (%s), %dx%d grid, %d tiles\n",
		d.Source, d.Name, d.Format, d.TileWidth, d.TileHeight, d.TileCount)
	if d.Image != nil {
		fmt.Fprintf(out, "  atlas %s (%dx%d, %d columns)\n", d.AtlasPath(), d.Image.Width, d.Image.Height, d.Columns)
	}
	for _, t := range d.Tiles {
		solid := ""
		if t.Solid {
			solid = "  solid"
		}
		fmt.Fprintf(out, "  %3d  %dx%d  %s%s\n", t.ID, t.ImageWidth, t.ImageHeight, d.ImagePath(t), solid)
	}
	return nil
}
