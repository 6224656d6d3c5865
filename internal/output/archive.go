package output

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/passage"
)

// ManifestName is the first entry of every archive.
const ManifestName = "manifest.json"

// Injectable functions for testing
var (
	xzNewWriter    = xz.NewWriter
	xzNewReader    = xz.NewReader
	writeToTarFunc = writeToTarImpl
	timeNow        = time.Now
)

// Manifest describes the files packed into an archive.
type Manifest struct {
	Created time.Time       `json:"created"`
	RunID   string          `json:"run_id,omitempty"`
	Files   []ManifestEntry `json:"files"`
}

// ManifestEntry is one packed file.
type ManifestEntry struct {
	Path   string `json:"path"`
	Size   int    `json:"size"`
	BLAKE3 string `json:"blake3"`
}

// Pack writes every regular file below dir into a tar.xz archive at
// archivePath, preceded by a manifest. Paths inside the archive are
// slash-separated and relative to dir. The archive file itself is skipped
// when it lives inside dir.
func Pack(dir, archivePath, runID string) (*Manifest, error) {
	archiveAbs, _ := filepath.Abs(archivePath)

	var names []string
	contents := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == archiveAbs {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		names = append(names, name)
		contents[name] = data
		return nil
	})
	if err != nil {
		return nil, rterrors.NewIO("walk", dir, err)
	}
	sort.Strings(names)

	manifest := &Manifest{Created: timeNow().UTC(), RunID: runID}
	for _, name := range names {
		data := contents[name]
		manifest.Files = append(manifest.Files, ManifestEntry{
			Path:   name,
			Size:   len(data),
			BLAKE3: passage.HashBytes(data),
		})
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return nil, rterrors.NewIO("create", archivePath, err)
	}
	defer file.Close()

	compressWriter, err := xzNewWriter(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	tarWriter := tar.NewWriter(compressWriter)

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := writeToTarFunc(tarWriter, ManifestName, manifestData); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	for _, name := range names {
		if err := writeToTarFunc(tarWriter, name, contents[name]); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return nil, rterrors.NewIO("close tar", archivePath, err)
	}
	if err := compressWriter.Close(); err != nil {
		return nil, rterrors.NewIO("close xz", archivePath, err)
	}
	if err := file.Close(); err != nil {
		return nil, rterrors.NewIO("close", archivePath, err)
	}
	return manifest, nil
}

// ReadArchive returns the manifest and file contents of an archive written
// by Pack.
func ReadArchive(archivePath string) (*Manifest, map[string][]byte, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, nil, rterrors.NewIO("open", archivePath, err)
	}
	defer file.Close()

	xzReader, err := xzNewReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	tarReader := tar.NewReader(xzReader)

	var manifest *Manifest
	files := make(map[string][]byte)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		clean := filepath.Clean(header.Name)
		if strings.HasPrefix(clean, "..") {
			continue
		}
		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		if header.Name == ManifestName {
			manifest = &Manifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return nil, nil, fmt.Errorf("failed to parse manifest: %w", err)
			}
			continue
		}
		files[header.Name] = data
	}

	if manifest == nil {
		return nil, nil, fmt.Errorf("archive does not contain %s", ManifestName)
	}
	return manifest, files, nil
}

// writeToTarImpl writes a file to the tar archive.
func writeToTarImpl(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: timeNow(),
	}

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	_, err := tw.Write(data)
	return err
}
