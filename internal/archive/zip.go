// Package archive compresses a batch working directory into the single
// deliverable zip artifact.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Packer writes zip archives from download working directories.
type Packer struct {
	Logger *logrus.Logger
}

func NewPacker(logger *logrus.Logger) *Packer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Packer{Logger: logger}
}

// Pack adds every file under srcDir to a new archive at destPath. Entries are
// stored relative to srcDir, so the archive has no wrapping root folder.
// A file that disappears between listing and open is a warning, not a failure.
func (p *Packer) Pack(srcDir, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	walkErr := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				p.Logger.Warnf("skipping vanished file %s", path)
				return nil
			}
			return err
		}
		defer file.Close()

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		_, err = io.Copy(w, file)
		return err
	})
	if walkErr != nil {
		zw.Close()
		return fmt.Errorf("add files to archive: %w", walkErr)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}
