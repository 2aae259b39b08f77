// Package verify runs the consistency checks for SAFE products: manifest
// schema validation, manifest cross-referencing, filesystem reconciliation
// and per-object integrity checks, aggregated into one severity per product.
package verify

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sentineltools/safecheck/pkg/digest"
	"github.com/sentineltools/safecheck/pkg/manifest"
	"github.com/sentineltools/safecheck/pkg/product"
	"github.com/sentineltools/safecheck/pkg/schema"
)

// Options configures a Verifier.
type Options struct {
	// SchemaPath is an explicit manifest schema; it overrides built-in
	// resolution for every product.
	SchemaPath string
	// SchemaOverrides maps upper-case family codes to manifest schema paths
	// (from the configuration file).
	SchemaOverrides map[string]string
	// Log receives diagnostics as they are found. May be nil.
	Log *zap.SugaredLogger
}

// Verifier checks products one at a time. It holds no per-product state;
// every run builds its model from scratch.
type Verifier struct {
	opts Options
}

func New(opts Options) *Verifier {
	return &Verifier{opts: opts}
}

// Result is the outcome of verifying one product.
type Result struct {
	Product  string
	Severity Severity
	Entries  []Entry
}

// All verifies every product in order and returns the most severe outcome
// observed. A failing product never prevents checking the ones after it.
func (v *Verifier) All(paths []string) (Severity, []Result) {
	overall := Success
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		res := v.Product(path)
		overall = Max(overall, res.Severity)
		results = append(results, res)
	}
	return overall, results
}

// Product verifies a single product directory.
func (v *Verifier) Product(path string) Result {
	r := newReport(v.opts.Log)
	p := product.New(path)

	if info, err := os.Stat(p.Path); err != nil || !info.IsDir() {
		r.fatalf("could not find '%s'", p.Path)
		return v.result(p, r)
	}

	manifestPath := p.ManifestPath()
	if _, err := os.Stat(manifestPath); err != nil {
		r.fatalf("could not find '%s'", manifestPath)
		return v.result(p, r)
	}

	if p.Profile.HasNameChecksum && !p.IsAuxiliary() {
		v.checkNameChecksum(p, manifestPath, r)
	}

	manifestSchema, err := schema.Resolve(p.Family, v.opts.SchemaPath, v.opts.SchemaOverrides)
	if err != nil {
		r.fatalf("could not resolve manifest schema for '%s': %v", p.Name, err)
		return v.result(p, r)
	}
	if outcome := schema.ValidateFile(manifestPath, manifestSchema); !outcome.OK {
		r.errorf("could not verify '%s' against schema '%s'", manifestPath, manifestSchema.Name)
		for _, diag := range outcome.Diagnostics {
			r.errorf("%s", diag)
		}
	}

	m, err := manifest.Load(manifestPath, p.Profile.UsesPackageMap)
	if err != nil {
		r.fatalf("%v", err)
		return v.result(p, r)
	}
	for _, mm := range m.Mismatches {
		r.errorf("dataObject '%s' contains repID '%s' in informationPackageMap, but '%s' in dataObjectSection",
			mm.ObjectID, mm.PackageMapID, mm.SectionID)
	}

	files, err := discoverFiles(p.Path)
	if err != nil {
		r.fatalf("%v", err)
		return v.result(p, r)
	}
	unreferenced := reconcile(files, p.Path, manifestPath, m)

	v.checkObjects(p.Path, m, r)

	for _, file := range unreferenced {
		r.warnf("file '%s' found in product but not included in %s", file, product.ManifestName)
	}

	return v.result(p, r)
}

// checkNameChecksum compares the checksum field embedded in the product name
// with the checksum of the manifest bytes. A disagreement is always a
// warning.
func (v *Verifier) checkNameChecksum(p product.Product, manifestPath string, r *report) {
	declared, ok := p.NameChecksum()
	if !ok {
		r.warnf("product name '%s' does not carry a checksum field", p.Name)
		return
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		r.warnf("could not read '%s' for the product name check: %v", manifestPath, err)
		return
	}
	expected := digest.NameChecksum(raw)
	if declared != expected {
		r.warnf("crc in product name '%s' does not match crc of manifest file '%s'", declared, expected)
	}
}

func (v *Verifier) result(p product.Product, r *report) Result {
	return Result{
		Product:  filepath.ToSlash(p.Path),
		Severity: r.severity,
		Entries:  r.entries,
	}
}
