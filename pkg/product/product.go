// Package product identifies SAFE products and the family-specific
// verification profile that applies to them.
package product

import (
	"path/filepath"
	"strings"
)

// ManifestName is the fixed manifest location relative to the product root.
const ManifestName = "manifest.safe"

// Profile captures how a product family is verified. Families are a closed
// set; adding one means adding a case to profileFor, nothing else.
type Profile struct {
	// UsesPackageMap indicates that representations are bound to data
	// objects through the informationPackageMap section.
	UsesPackageMap bool
	// HasNameChecksum indicates that the product name embeds a checksum of
	// the manifest bytes.
	HasNameChecksum bool
}

// Product is a SAFE product directory on disk.
type Product struct {
	Path    string // directory as given by the caller
	Name    string // base name of the directory
	Family  string // upper-case two-character family code
	Profile Profile
}

func New(path string) Product {
	name := filepath.Base(filepath.Clean(path))

	family := ""
	if len(name) >= 2 {
		family = strings.ToUpper(name[:2])
	}

	return Product{
		Path:    path,
		Name:    name,
		Family:  family,
		Profile: profileFor(family),
	}
}

func profileFor(family string) Profile {
	switch family {
	case "S1":
		return Profile{UsesPackageMap: true, HasNameChecksum: true}
	case "S2", "S3":
		return Profile{}
	default:
		// Other families carry a trailing checksum in the name but no
		// package map.
		return Profile{HasNameChecksum: true}
	}
}

func (p Product) ManifestPath() string {
	return filepath.Join(p.Path, ManifestName)
}

// IsAuxiliary reports whether the product is an auxiliary product. Auxiliary
// products do not carry a checksum in their name.
func (p Product) IsAuxiliary() bool {
	return len(p.Name) >= 7 && p.Name[4:7] == "AUX"
}

// NameChecksum extracts the checksum field embedded in the product name. For
// S1 it is the ninth underscore-separated field of the name without its
// extension, which holds for standard products (checksum is the last field)
// as well as COG products, which append an extra field after it. Other
// families place it in the last four characters of the stem.
func (p Product) NameChecksum() (string, bool) {
	stem := strings.TrimSuffix(p.Name, filepath.Ext(p.Name))

	if p.Family == "S1" {
		parts := strings.Split(stem, "_")
		if len(parts) < 9 {
			return "", false
		}
		return parts[8], true
	}

	if len(stem) < 4 {
		return "", false
	}
	return stem[len(stem)-4:], true
}
