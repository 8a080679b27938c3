package tileset

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxCost bounds the registry cache. Each descriptor costs its tile
// count.
const DefaultMaxCost = 4096

// Registry shares loaded descriptors across the process, so a tileset used by
// many maps is read once. It is safe for concurrent use.
type Registry struct {
	loader *Loader
	cache  *ristretto.Cache[string, *Descriptor]
	group  singleflight.Group
	log    logrus.FieldLogger

	mu  sync.Mutex
	gen map[string]uint64 // bumped by Invalidate
}

// NewRegistry creates a registry that loads through loader. maxCost <= 0
// uses DefaultMaxCost.
func NewRegistry(loader *Loader, maxCost int64) (*Registry, error) {
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *Descriptor]{
		NumCounters:        maxCost * 10,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tileset cache: %w", err)
	}

	return &Registry{
		loader: loader,
		cache:  cache,
		log:    loader.log,
		gen:    make(map[string]uint64),
	}, nil
}

// Get returns the descriptor for name, loading it on first use. Concurrent
// callers asking for the same name share a single load, and each caller stops
// waiting when its own ctx is done. Failed loads are not cached.
func (r *Registry) Get(ctx context.Context, name string) (*Descriptor, error) {
	if d, ok := r.cache.Get(name); ok {
		return d, nil
	}

	// The shared load must not die with whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(name, func() (any, error) {
		if d, ok := r.cache.Get(name); ok {
			return d, nil
		}

		gen := r.generation(name)
		d, err := r.loader.Load(loadCtx, name)
		if err != nil {
			return nil, err
		}

		r.store(name, gen, d)
		return d, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Descriptor), nil
	}
}

func (r *Registry) generation(name string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen[name]
}

// store caches d unless name was invalidated after the load started.
func (r *Registry) store(name string, gen uint64, d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen[name] != gen {
		r.log.WithField("path", name).Debug("tileset invalidated during load, not caching")
		return
	}
	if !r.cache.Set(name, d, cost(d)) {
		r.log.WithField("path", name).Warn("tileset not admitted to cache")
	}
	r.cache.Wait()
	r.log.WithFields(logrus.Fields{"path": name, "tiles": d.TileCount}).Info("Loaded tileset")
}

// MustGet returns the descriptor for name, panicking on error.
// Use this for tilesets the program cannot run without.
func (r *Registry) MustGet(ctx context.Context, name string) *Descriptor {
	d, err := r.Get(ctx, name)
	if err != nil {
		panic(err)
	}
	return d
}

// Bind loads the tileset a map references and pairs it with the map's
// firstgid.
func (r *Registry) Bind(ctx context.Context, firstGID uint32, source string) (MapTileset, error) {
	if firstGID == 0 {
		return MapTileset{}, fmt.Errorf("tileset %s: firstgid must be at least 1", source)
	}
	d, err := r.Get(ctx, source)
	if err != nil {
		return MapTileset{}, err
	}
	return MapTileset{FirstGID: firstGID, Tileset: d}, nil
}

// Invalidate drops name from the cache so the next Get reloads it. A load
// already in flight still answers its callers but is not cached.
func (r *Registry) Invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen[name]++
	r.group.Forget(name)
	r.cache.Del(name)
	r.cache.Wait()
}

// Close releases the cache.
func (r *Registry) Close() {
	r.cache.Close()
}

func cost(d *Descriptor) int64 {
	if d.TileCount <= 0 {
		return 1
	}
	return int64(d.TileCount)
}
