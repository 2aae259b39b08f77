package verify

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sentineltools/safecheck/pkg/digest"
	"github.com/sentineltools/safecheck/pkg/manifest"
	"github.com/sentineltools/safecheck/pkg/schema"
)

// checkObjects runs the per-object integrity checks in href order: existence
// (short-circuits the rest for that object), declared size, declared
// checksum, and schema validity for XML members with a bound representation.
func (v *Verifier) checkObjects(root string, m *manifest.Manifest, r *report) {
	for _, obj := range m.SortedObjects() {
		path := filepath.Join(root, obj.Href)

		info, err := os.Stat(path)
		if err != nil {
			r.errorf("%s reference '%s' does not exist", filepath.Base(m.Path), path)
			continue
		}

		if info.Size() != obj.Size {
			r.errorf("file size for '%s' (%d) does not match file size in %s (%d)",
				path, info.Size(), filepath.Base(m.Path), obj.Size)
		}

		v.checkChecksum(path, obj, m, r)

		if isXML(path) && obj.Rep != nil {
			v.checkAgainstRepSchema(root, path, obj, r)
		}
	}
}

func (v *Verifier) checkChecksum(path string, obj *manifest.DataObject, m *manifest.Manifest, r *report) {
	actual, err := digest.File(path, obj.ChecksumName)
	if err != nil {
		r.errorf("could not compute %s checksum for '%s': %v", obj.ChecksumName, path, err)
		return
	}
	if actual != obj.Checksum {
		r.errorf("checksum for '%s' (%s) does not match checksum in %s (%s)",
			path, actual, filepath.Base(m.Path), obj.Checksum)
	}
}

func (v *Verifier) checkAgainstRepSchema(root, path string, obj *manifest.DataObject, r *report) {
	schemaPath := filepath.Join(root, obj.Rep.Href)
	if _, err := os.Stat(schemaPath); err != nil {
		r.errorf("schema file '%s' does not exist", schemaPath)
		return
	}

	outcome := schema.ValidateFile(path, schema.FromFile(schemaPath))
	if !outcome.OK {
		r.errorf("could not verify '%s' against schema '%s'", path, schemaPath)
		for _, diag := range outcome.Diagnostics {
			r.errorf("%s", diag)
		}
	}
}

// isXML reports whether path names an XML document: a case-insensitive .xml
// extension on a file whose name does not begin with a dot.
func isXML(path string) bool {
	name := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(name), ".xml") && !strings.HasPrefix(name, ".")
}
