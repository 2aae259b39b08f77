package verify

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/sentineltools/safecheck/pkg/manifest"
)

// fileSet tracks the regular files discovered under the product root, keyed
// by cleaned absolute-ish path so matching is by path identity rather than by
// name heuristics.
type fileSet map[string]struct{}

// discoverFiles lists every regular file under root, recursively.
func discoverFiles(root string) (fileSet, error) {
	files := make(fileSet)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files[filepath.Clean(path)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk product %s: %w", root, err)
	}
	return files, nil
}

func (s fileSet) remove(path string) {
	delete(s, filepath.Clean(path))
}

// reconcile subtracts every manifest-referenced file from the discovered set:
// the manifest itself, the representation schema files, then the data object
// files. The residue is the unreferenced files, sorted for stable reporting.
func reconcile(files fileSet, root, manifestPath string, m *manifest.Manifest) []string {
	files.remove(manifestPath)
	for _, rep := range m.Reps {
		files.remove(filepath.Join(root, rep.Href))
	}
	for _, obj := range m.Objects {
		files.remove(filepath.Join(root, obj.Href))
	}

	residue := make([]string, 0, len(files))
	for path := range files {
		residue = append(residue, path)
	}
	sort.Strings(residue)
	return residue
}
