// Package manifest builds an in-memory model of a SAFE manifest: the
// representation map from the metadata section, the data-object bindings from
// the information package map, and the declared file facts from the data
// object section.
package manifest

import "sort"

// repSuffix marks metadata objects that are schema representations.
const repSuffix = "Schema"

// Representation is a schema representation declared in the metadata section.
type Representation struct {
	ID   string
	Href string
}

// DataObject is one physical file declared by the manifest.
type DataObject struct {
	ID           string
	RepID        string          // first token of the declared repID list
	Rep          *Representation // nil when the family has no package map
	Href         string          // file location relative to the product root
	Size         int64           // declared byte size
	Checksum     string          // declared hex digest, as stored
	ChecksumName string          // declared checksum algorithm
}

// RepMismatch records a data object whose representation id differs between
// the information package map and the data object section. Recorded, never
// fatal.
type RepMismatch struct {
	ObjectID     string
	PackageMapID string
	SectionID    string
}

// Manifest is the cross-referenced model of one manifest file. It is built
// once per verification and not mutated afterwards.
type Manifest struct {
	Path       string
	Reps       map[string]Representation
	Objects    map[string]*DataObject
	Mismatches []RepMismatch
}

// SortedObjects returns the data objects ordered by declared href, the order
// in which integrity checks run and report.
func (m *Manifest) SortedObjects() []*DataObject {
	objects := make([]*DataObject, 0, len(m.Objects))
	for _, obj := range m.Objects {
		objects = append(objects, obj)
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Href < objects[j].Href
	})
	return objects
}
