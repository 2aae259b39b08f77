// Package digest computes the checksums used by SAFE product verification.
package digest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"

	"github.com/sigurn/crc16"
)

// Algorithm names as they appear in the manifest checksum element.
const (
	AlgorithmMD5   = "MD5"
	AlgorithmCRC32 = "CRC32"
)

// chunkSize is the read buffer used when hashing files.
const chunkSize = 64 * 1024

var nameChecksumTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// File computes the hex digest of the file at path using the given manifest
// checksum algorithm. The file is streamed, never loaded whole.
func File(path, algorithm string) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.CopyBuffer(h, f, make([]byte, chunkSize)); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// NameChecksum computes the CRC-16/IBM-3740 checksum of the manifest bytes,
// formatted the way the product naming convention embeds it (four upper-case
// hex digits).
func NameChecksum(manifest []byte) string {
	return fmt.Sprintf("%04X", crc16.Checksum(manifest, nameChecksumTable))
}

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case AlgorithmMD5:
		return md5.New(), nil
	case AlgorithmCRC32:
		return crc32.NewIEEE(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}
