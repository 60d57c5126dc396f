package export

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// BundleEntry is one file inside a zip bundle.
type BundleEntry struct {
	Name string
	Data []byte
}

// ZipBundler packs generated documents into a single downloadable archive.
type ZipBundler struct{}

// NewZipBundler constructs a zip bundler.
func NewZipBundler() *ZipBundler {
	return &ZipBundler{}
}

// Bundle writes the entries into a zip archive and returns its bytes.
func (b *ZipBundler) Bundle(entries []BundleEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("bundle requires at least one entry")
	}
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}
