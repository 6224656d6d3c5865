// Package output persists round-tripped units and packs output directories
// into archives.
package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/passage"
	"github.com/FocuswithJustin/semroundtrip/internal/logging"
)

// Injectable functions for testing
var (
	osMkdirAll  = os.MkdirAll
	osWriteFile = os.WriteFile
	writeXML    = passage.WriteXML
)

// Sink writes unit files into a directory. A Sink with an empty Dir writes
// nothing.
type Sink struct {
	Dir string
}

// NewSink returns a Sink writing into dir.
func NewSink(dir string) *Sink {
	return &Sink{Dir: dir}
}

// Enabled reports whether the sink writes files.
func (s *Sink) Enabled() bool {
	return s != nil && s.Dir != ""
}

// PassagePath returns the path of a unit's passage XML.
func (s *Sink) PassagePath(unitID string) string {
	return filepath.Join(s.Dir, unitID+".xml")
}

// NativePath returns the path of a unit's back-converted text. ext keeps
// its leading dot.
func (s *Sink) NativePath(unitID, ext string) string {
	return filepath.Join(s.Dir, unitID+ext)
}

// WritePassage writes p as <dir>/<unitID>.xml.
func (s *Sink) WritePassage(unitID string, p *passage.Passage) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	var buf bytes.Buffer
	if err := writeXML(&buf, p); err != nil {
		return "", rterrors.Wrapf(err, "failed to serialize passage %s", unitID)
	}
	path := s.PassagePath(unitID)
	return path, s.write(path, buf.Bytes())
}

// WriteNative writes lines as <dir>/<unitID><ext>, newline-terminated.
func (s *Sink) WriteNative(unitID, ext string, lines []string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	data := []byte(strings.Join(lines, "\n") + "\n")
	path := s.NativePath(unitID, ext)
	return path, s.write(path, data)
}

func (s *Sink) write(path string, data []byte) error {
	if err := osMkdirAll(s.Dir, 0755); err != nil {
		return rterrors.NewIO("mkdir", s.Dir, err)
	}
	if err := osWriteFile(path, data, 0644); err != nil {
		return rterrors.NewIO("write", path, err)
	}
	logging.OutputWritten(path, len(data))
	return nil
}
