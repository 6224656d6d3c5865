package passage

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// writeXMLFn is a variable to allow testing of serialization errors.
var writeXMLFn = WriteXML

// HashBytes computes the BLAKE3 hash of data as a hex string.
func HashBytes(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashLines hashes lines as they would be written to a file: joined by
// newlines with a trailing newline.
func HashLines(lines []string) string {
	h := blake3.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the BLAKE3 hash of the canonical XML rendering of p.
func Hash(p *Passage) (string, error) {
	var buf bytes.Buffer
	if err := writeXMLFn(&buf, p); err != nil {
		return "", err
	}
	return HashBytes(buf.Bytes()), nil
}

// Lines renders p as canonical XML split into lines, without the trailing
// empty line.
func Lines(p *Passage) ([]string, error) {
	var buf bytes.Buffer
	if err := writeXMLFn(&buf, p); err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"), nil
}
