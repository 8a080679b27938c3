// Package data provides the embedded tileset assets shipped with the binary.
package data

import "embed"

// Names of the embedded tilesets.
const (
	PotionsTSX  = "Potions.tsx"
	PotionsJSON = "Potions.json"
)

// dataFS embeds all tileset files from the data directory at build time.
//
//go:embed *.tsx *.json
var dataFS embed.FS

// FS returns the embedded filesystem containing the tilesets.
func FS() embed.FS {
	return dataFS
}
