package archive

import (
	"fmt"
	"os"

	"github.com/bodgit/sevenzip"
)

type sevenZip struct {
	path string
	size int64
}

func (s *sevenZip) CompressedSize() int64 { return s.size }

// Unpack extracts a .7z archive. 7z has no per-entry compressed size, so
// progress is reported as a share of the uncompressed total.
func (s *sevenZip) Unpack(dest string, progress func(int64)) error {
	reader, err := sevenzip.OpenReader(s.path)
	if err != nil {
		return fmt.Errorf("corrupt archive %s: %w", s.path, err)
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	var total, done uint64
	for _, f := range reader.File {
		total += f.UncompressedSize
	}

	for _, f := range reader.File {
		if err := extractSevenZipFile(f, dest); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		done += f.UncompressedSize
		if progress != nil && total > 0 {
			progress(int64(float64(done) / float64(total) * float64(s.size)))
		}
	}
	return nil
}

func extractSevenZipFile(f *sevenzip.File, dest string) error {
	path, err := safeJoin(dest, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(path, 0755)
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	return writeFile(path, rc, f.Mode())
}
