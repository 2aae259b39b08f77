package manifest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/sentineltools/safecheck/pkg/digest"
)

// ErrStructural marks cross-reference failures between manifest sections.
// Structural errors abort verification of the product.
var ErrStructural = errors.New("manifest structural inconsistency")

// Load parses the manifest at path and cross-references its sections.
// usePackageMap selects whether representations are bound to data objects
// through the information package map (S1-style products).
//
// A returned error is fatal for the product: either the document is
// unparsable or the sections contradict each other (ErrStructural).
// Representation mismatches between sections are not fatal; they are
// collected on the model.
func Load(path string, usePackageMap bool) (*Manifest, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("could not parse xml file '%s': %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("could not parse xml file '%s': no document element", path)
	}

	m := &Manifest{
		Path:    path,
		Reps:    make(map[string]Representation),
		Objects: make(map[string]*DataObject),
	}

	if err := m.loadMetadataSection(root); err != nil {
		return nil, err
	}
	if usePackageMap {
		if err := m.loadPackageMap(root); err != nil {
			return nil, err
		}
	}
	if err := m.loadDataObjectSection(root, usePackageMap); err != nil {
		return nil, err
	}

	return m, nil
}

// loadMetadataSection collects the representations: metadata objects whose ID
// carries the schema suffix, in document order.
func (m *Manifest) loadMetadataSection(root *etree.Element) error {
	section := childByTag(root, "metadataSection")
	if section == nil {
		return fmt.Errorf("%w: manifest has no metadataSection", ErrStructural)
	}

	for _, obj := range childrenByTag(section, "metadataObject") {
		id := obj.SelectAttrValue("ID", "")
		if !strings.HasSuffix(id, repSuffix) {
			continue
		}
		ref := childByTag(obj, "metadataReference")
		if ref == nil {
			return fmt.Errorf("%w: metadataObject '%s' has no metadataReference", ErrStructural, id)
		}
		m.Reps[id] = Representation{ID: id, Href: ref.SelectAttrValue("href", "")}
	}

	return nil
}

// loadPackageMap binds data objects to representations from the content units
// nested two levels below the information package map.
func (m *Manifest) loadPackageMap(root *etree.Element) error {
	ipm := childByTag(root, "informationPackageMap")
	if ipm == nil {
		return fmt.Errorf("%w: manifest has no informationPackageMap", ErrStructural)
	}

	for _, outer := range childrenByTag(ipm, "contentUnit") {
		for _, unit := range childrenByTag(outer, "contentUnit") {
			pointer := childByTag(unit, "dataObjectPointer")
			repID := firstToken(unit.SelectAttrValue("repID", ""))
			if pointer == nil || repID == "" {
				continue
			}
			objectID := pointer.SelectAttrValue("dataObjectID", "")

			rep, ok := m.Reps[repID]
			if !ok {
				return fmt.Errorf("%w: dataObject '%s' in informationPackageMap contains repID '%s' which is not defined in metadataSection",
					ErrStructural, objectID, repID)
			}
			m.Objects[objectID] = &DataObject{ID: objectID, RepID: repID, Rep: &rep}
		}
	}

	return nil
}

// loadDataObjectSection fills in the declared file facts. When a package map
// is in use, every data object must already be bound by it.
func (m *Manifest) loadDataObjectSection(root *etree.Element, usePackageMap bool) error {
	section := childByTag(root, "dataObjectSection")
	if section == nil {
		return fmt.Errorf("%w: manifest has no dataObjectSection", ErrStructural)
	}

	for _, el := range childrenByTag(section, "dataObject") {
		id := el.SelectAttrValue("ID", "")
		repID := firstToken(el.SelectAttrValue("repID", ""))

		obj := m.Objects[id]
		switch {
		case obj == nil && usePackageMap:
			return fmt.Errorf("%w: dataObject '%s' in dataObjectSection is not defined in informationPackageMap",
				ErrStructural, id)
		case obj == nil:
			obj = &DataObject{ID: id, RepID: repID}
			m.Objects[id] = obj
		default:
			if obj.RepID != repID {
				m.Mismatches = append(m.Mismatches, RepMismatch{
					ObjectID:     id,
					PackageMapID: obj.RepID,
					SectionID:    repID,
				})
			}
		}

		byteStream := childByTag(el, "byteStream")
		if byteStream == nil {
			return fmt.Errorf("%w: dataObject '%s' has no byteStream", ErrStructural, id)
		}
		size, err := strconv.ParseInt(byteStream.SelectAttrValue("size", ""), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: dataObject '%s' has an invalid size: %v", ErrStructural, id, err)
		}
		location := childByTag(byteStream, "fileLocation")
		checksum := childByTag(byteStream, "checksum")
		if location == nil || checksum == nil {
			return fmt.Errorf("%w: dataObject '%s' byteStream is missing fileLocation or checksum", ErrStructural, id)
		}

		obj.Size = size
		obj.Href = location.SelectAttrValue("href", "")
		obj.Checksum = checksum.Text()
		obj.ChecksumName = checksum.SelectAttrValue("checksumName", digest.AlgorithmMD5)
	}

	return nil
}

// firstToken returns the first whitespace-separated token of an IDREFS value.
// Only the first id of a combined representation list is authoritative.
func firstToken(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// childByTag returns the first child element with the given local tag,
// regardless of namespace prefix. Manifest sections are unqualified while
// content units carry the xfdu prefix.
func childByTag(parent *etree.Element, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

func childrenByTag(parent *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range parent.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}
