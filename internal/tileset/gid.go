package tileset

import "sort"

// Flags stored in the high bits of a map cell's global tile ID.
const (
	FlipHorizontal uint32 = 0x80000000
	FlipVertical   uint32 = 0x40000000
	FlipDiagonal   uint32 = 0x20000000
	RotateHex120   uint32 = 0x10000000

	flagMask = FlipHorizontal | FlipVertical | FlipDiagonal | RotateHex120
)

// MapTileset is a tileset as referenced from a map: global tile IDs from
// FirstGID onwards belong to it.
type MapTileset struct {
	FirstGID uint32
	Tileset  *Descriptor
}

// MapTilesets resolves global tile IDs across all tilesets of one map.
type MapTilesets []MapTileset

// NewMapTilesets returns the bindings ordered by FirstGID.
func NewMapTilesets(bindings ...MapTileset) MapTilesets {
	m := make(MapTilesets, len(bindings))
	copy(m, bindings)
	sort.Slice(m, func(i, j int) bool { return m[i].FirstGID < m[j].FirstGID })
	return m
}

// GID strips the flip flags from a raw cell value.
func GID(cell uint32) uint32 {
	return cell &^ flagMask
}

// Lookup returns the tile a map cell refers to. Cell value 0 is empty.
func (m MapTilesets) Lookup(cell uint32) (Tile, bool) {
	gid := GID(cell)
	if gid == 0 {
		return Tile{}, false
	}

	// Last binding whose FirstGID <= gid.
	i := sort.Search(len(m), func(i int) bool { return m[i].FirstGID > gid }) - 1
	if i < 0 || m[i].Tileset == nil {
		return Tile{}, false
	}
	return m[i].Tileset.Tile(int(gid - m[i].FirstGID))
}

// IsSolid reports whether a map cell refers to a solid tile.
func (m MapTilesets) IsSolid(cell uint32) bool {
	t, ok := m.Lookup(cell)
	return ok && t.Solid
}
