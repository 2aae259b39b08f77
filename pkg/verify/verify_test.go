package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentineltools/safecheck/pkg/digest"
	"github.com/sentineltools/safecheck/pkg/schema"
)

const measurementSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="measurement">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="value" type="xs:integer" maxOccurs="unbounded"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>
`

const measurementData = "<measurement><value>42</value></measurement>"

const s1ManifestTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<xfdu:XFDU xmlns:xfdu="urn:ccsds:schema:xfdu:1" version="esa/safe/sentinel-1.0">
  <informationPackageMap>
    <xfdu:contentUnit unitType="SAFE Archive Information Package">
      <xfdu:contentUnit unitType="Measurement Data Unit" repID="measurementSchema">
        <dataObjectPointer dataObjectID="measurementData1"/>
      </xfdu:contentUnit>
    </xfdu:contentUnit>
  </informationPackageMap>
  <metadataSection>
    <metadataObject ID="processing" classification="PROVENANCE" category="PDI"/>
    <metadataObject ID="measurementSchema" classification="SYNTAX" category="REP">
      <metadataReference href="support/measurement.xsd" locatorType="URL"/>
    </metadataObject>
  </metadataSection>
  <dataObjectSection>
    <dataObject ID="measurementData1" repID="measurementSchema">
      <byteStream mimeType="application/xml" size="%d">
        <fileLocation locatorType="URL" href="measurement/data.xml"/>
        <checksum checksumName="%s">%s</checksum>
      </byteStream>
    </dataObject>
  </dataObjectSection>
</xfdu:XFDU>
`

const s2ManifestTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<xfdu:XFDU xmlns:xfdu="urn:ccsds:schema:xfdu:1" version="esa/safe/sentinel-2.0">
  <metadataSection>
    <metadataObject ID="processing" classification="PROVENANCE" category="PDI"/>
    <metadataObject ID="measurementSchema" classification="SYNTAX" category="REP">
      <metadataReference href="support/measurement.xsd" locatorType="URL"/>
    </metadataObject>
  </metadataSection>
  <dataObjectSection>
    <dataObject ID="measurementData1" repID="measurementSchema">
      <byteStream mimeType="application/xml" size="%d">
        <fileLocation locatorType="URL" href="measurement/data.xml"/>
        <checksum checksumName="%s">%s</checksum>
      </byteStream>
    </dataObject>
  </dataObjectSection>
</xfdu:XFDU>
`

type fixture struct {
	name         string
	template     string
	data         string // overrides the measurement data content when set
	sizeDelta    int64  // declared size offset from the real size
	checksumName string // declared checksum algorithm, MD5 when empty
	checksum     string // overrides the real checksum when set
	omitDataFile bool
	extraFiles   []string
}

// writeProduct lays out a product directory: manifest.safe, the
// representation schema, the measurement data file and any extras.
func writeProduct(t *testing.T, f fixture) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), f.name)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "support"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "measurement"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "support", "measurement.xsd"), []byte(measurementSchema), 0o644))

	data := f.data
	if data == "" {
		data = measurementData
	}
	dataPath := filepath.Join(root, "measurement", "data.xml")
	require.NoError(t, os.WriteFile(dataPath, []byte(data), 0o644))

	algorithm := f.checksumName
	if algorithm == "" {
		algorithm = digest.AlgorithmMD5
	}
	checksum := f.checksum
	if checksum == "" {
		var err error
		checksum, err = digest.File(dataPath, algorithm)
		require.NoError(t, err)
	}
	if f.omitDataFile {
		require.NoError(t, os.Remove(dataPath))
	}

	size := int64(len(data)) + f.sizeDelta
	manifest := fmt.Sprintf(f.template, size, algorithm, checksum)
	require.NoError(t, os.WriteFile(filepath.Join(root, "manifest.safe"), []byte(manifest), 0o644))

	for _, extra := range f.extraFiles {
		require.NoError(t, os.WriteFile(filepath.Join(root, extra), []byte("extra"), 0o644))
	}

	return root
}

// auxName skips the product name checksum check (AUX products carry none).
const auxName = "S1A_AUX_PP1_V20190228T092500_G20190228T092500.SAFE"

func messages(res Result) string {
	var b strings.Builder
	for _, e := range res.Entries {
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}

func TestCleanProduct(t *testing.T) {
	root := writeProduct(t, fixture{name: auxName, template: s1ManifestTemplate})

	res := New(Options{}).Product(root)
	require.Equal(t, Success, res.Severity, "diagnostics: %s", messages(res))
	require.Empty(t, res.Entries)
	require.Equal(t, 0, res.Severity.Code())
}

func TestCleanProductWithMatchingNameChecksum(t *testing.T) {
	// Build the manifest first so the name can embed its real checksum.
	dir := t.TempDir()
	staging := writeProduct(t, fixture{name: auxName, template: s1ManifestTemplate})
	raw, err := os.ReadFile(filepath.Join(staging, "manifest.safe"))
	require.NoError(t, err)
	crc := digest.NameChecksum(raw)

	name := fmt.Sprintf("S1A_IW_GRDH_1SDV_20200101T000000_20200101T000025_030000_037000_%s.SAFE", crc)
	root := filepath.Join(dir, name)
	require.NoError(t, os.Rename(staging, root))

	res := New(Options{}).Product(root)
	require.Equal(t, Success, res.Severity, "diagnostics: %s", messages(res))
}

func TestNameChecksumMismatchIsWarningOnly(t *testing.T) {
	staging := writeProduct(t, fixture{name: auxName, template: s1ManifestTemplate})
	raw, err := os.ReadFile(filepath.Join(staging, "manifest.safe"))
	require.NoError(t, err)

	wrong := "0000"
	if digest.NameChecksum(raw) == wrong {
		wrong = "FFFF"
	}
	name := fmt.Sprintf("S1A_IW_GRDH_1SDV_20200101T000000_20200101T000025_030000_037000_%s.SAFE", wrong)
	root := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.Rename(staging, root))

	res := New(Options{}).Product(root)
	require.Equal(t, Warning, res.Severity)
	require.Equal(t, 3, res.Severity.Code())
	require.Contains(t, messages(res), "crc in product name")
}

func TestMissingProductIsFatal(t *testing.T) {
	res := New(Options{}).Product(filepath.Join(t.TempDir(), "S1A_NOPE.SAFE"))
	require.Equal(t, Fatal, res.Severity)
	require.Equal(t, 2, res.Severity.Code())
	require.Len(t, res.Entries, 1)
}

func TestMissingManifestIsFatal(t *testing.T) {
	root := filepath.Join(t.TempDir(), auxName)
	require.NoError(t, os.MkdirAll(root, 0o755))

	res := New(Options{}).Product(root)
	require.Equal(t, Fatal, res.Severity)
	require.Contains(t, messages(res), "manifest.safe")
}

func TestSizeMismatchDoesNotShortCircuit(t *testing.T) {
	root := writeProduct(t, fixture{
		name:      auxName,
		template:  s1ManifestTemplate,
		sizeDelta: 10,
		checksum:  "00000000000000000000000000000000",
	})

	res := New(Options{}).Product(root)
	require.Equal(t, Error, res.Severity)

	// Size and checksum failures are independent: both are reported.
	diag := messages(res)
	require.Contains(t, diag, "file size for")
	require.Contains(t, diag, "checksum for")
}

func TestMissingFileShortCircuitsPerObjectChecks(t *testing.T) {
	root := writeProduct(t, fixture{name: auxName, template: s1ManifestTemplate, omitDataFile: true})

	res := New(Options{}).Product(root)
	require.Equal(t, Error, res.Severity)

	diag := messages(res)
	require.Contains(t, diag, "does not exist")
	require.NotContains(t, diag, "file size for")
	require.NotContains(t, diag, "checksum for")
}

func TestMissingRepSchemaFileIsError(t *testing.T) {
	root := writeProduct(t, fixture{name: auxName, template: s1ManifestTemplate})
	require.NoError(t, os.Remove(filepath.Join(root, "support", "measurement.xsd")))

	res := New(Options{}).Product(root)
	require.Equal(t, Error, res.Severity)

	diag := messages(res)
	require.Contains(t, diag, "schema file")
	require.Contains(t, diag, "does not exist")
}

func TestXMLMemberSchemaViolationIsError(t *testing.T) {
	root := writeProduct(t, fixture{
		name:     auxName,
		template: s1ManifestTemplate,
		data:     "<measurement><value>forty-two</value></measurement>",
	})

	res := New(Options{}).Product(root)
	require.Equal(t, Error, res.Severity)

	diag := messages(res)
	require.Contains(t, diag, "could not verify")
	require.Contains(t, diag, "measurement.xsd")
	// The validator's own diagnostics follow the failure header.
	require.Greater(t, len(res.Entries), 1)
}

func TestCRC32ChecksumName(t *testing.T) {
	root := writeProduct(t, fixture{
		name:         auxName,
		template:     s1ManifestTemplate,
		checksumName: digest.AlgorithmCRC32,
	})

	res := New(Options{}).Product(root)
	require.Equal(t, Success, res.Severity, "diagnostics: %s", messages(res))
}

func TestUnknownChecksumNameIsRecordedError(t *testing.T) {
	root := writeProduct(t, fixture{
		name:         auxName,
		template:     s1ManifestTemplate,
		checksumName: "SHA1",
		checksum:     "deadbeef",
	})

	res := New(Options{}).Product(root)
	require.Equal(t, Error, res.Severity)
	// The manifest schema flags the unknown name as well; the per-object
	// check still records its own error and moves on.
	require.Contains(t, messages(res), `unsupported checksum algorithm "SHA1"`)
}

func TestUnreferencedFilesAreWarnings(t *testing.T) {
	root := writeProduct(t, fixture{name: auxName, template: s1ManifestTemplate, extraFiles: []string{"stray.txt"}})

	res := New(Options{}).Product(root)
	require.Equal(t, Warning, res.Severity)
	require.Contains(t, messages(res), "stray.txt")
	require.Contains(t, messages(res), "not included in manifest.safe")
}

func TestNonPackageMapFamily(t *testing.T) {
	root := writeProduct(t, fixture{
		name:     "S2B_MSIL1C_20200101T000000_N0208_R001_T31UFT_20200101T000000.SAFE",
		template: s2ManifestTemplate,
	})

	res := New(Options{}).Product(root)
	require.Equal(t, Success, res.Severity, "diagnostics: %s", messages(res))
}

func TestUnknownFamilyIsFatal(t *testing.T) {
	root := writeProduct(t, fixture{name: "ZZA_AUX_TEST.SAFE", template: s2ManifestTemplate})

	res := New(Options{}).Product(root)
	require.Equal(t, Fatal, res.Severity)
	require.Contains(t, messages(res), "schema")
}

func TestExplicitSchemaOverridesFamilyResolution(t *testing.T) {
	root := writeProduct(t, fixture{name: "ZZA_AUX_TEST.SAFE", template: s2ManifestTemplate})

	// Reuse the built-in S2 schema as an external file for the unknown family.
	s, err := schema.Resolve("S2", "", nil)
	require.NoError(t, err)
	schemaPath := filepath.Join(t.TempDir(), "manifest.xsd")
	require.NoError(t, os.WriteFile(schemaPath, s.Inline, 0o644))

	res := New(Options{SchemaPath: schemaPath}).Product(root)
	require.Equal(t, Success, res.Severity, "diagnostics: %s", messages(res))
}

func TestGenericFamilyNameChecksumScenario(t *testing.T) {
	// A generic-family product with a stale checksum in its name is a
	// warning, never an error, when everything else checks out.
	staging := writeProduct(t, fixture{name: "AA_STAGING.SAFE", template: s2ManifestTemplate})
	raw, err := os.ReadFile(filepath.Join(staging, "manifest.safe"))
	require.NoError(t, err)

	wrong := "5678"
	if digest.NameChecksum(raw) == wrong {
		wrong = "8765"
	}
	root := filepath.Join(t.TempDir(), fmt.Sprintf("AA_PRODUCT_%s.SAFE", wrong))
	require.NoError(t, os.Rename(staging, root))

	s, err := schema.Resolve("S2", "", nil)
	require.NoError(t, err)
	schemaPath := filepath.Join(t.TempDir(), "manifest.xsd")
	require.NoError(t, os.WriteFile(schemaPath, s.Inline, 0o644))

	res := New(Options{SchemaPath: schemaPath}).Product(root)
	require.Equal(t, Warning, res.Severity, "diagnostics: %s", messages(res))
	require.Equal(t, 3, res.Severity.Code())
	require.Contains(t, messages(res), "crc in product name")
}

func TestVerifyAllAggregatesMostSevere(t *testing.T) {
	clean := writeProduct(t, fixture{name: auxName, template: s1ManifestTemplate})
	missing := filepath.Join(t.TempDir(), "S1A_GONE.SAFE")

	severity, results := New(Options{}).All([]string{missing, clean})
	require.Equal(t, Fatal, severity)
	require.Len(t, results, 2)
	require.Equal(t, Fatal, results[0].Severity)
	require.Equal(t, Success, results[1].Severity)
}

func TestVerificationIsIdempotent(t *testing.T) {
	root := writeProduct(t, fixture{
		name:       auxName,
		template:   s1ManifestTemplate,
		sizeDelta:  1,
		extraFiles: []string{"stray.txt"},
	})

	v := New(Options{})
	first := v.Product(root)
	second := v.Product(root)
	require.Equal(t, first.Severity, second.Severity)
	require.Equal(t, first.Entries, second.Entries)
}
