package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// codec opens the decompressed stream of a tarball.
type codec func(r io.Reader) (io.Reader, error)

func gzipCodec(r io.Reader) (io.Reader, error) {
	return gzip.NewReader(r)
}

func xzCodec(r io.Reader) (io.Reader, error) {
	return xz.NewReader(r)
}

type tarball struct {
	path  string
	size  int64
	codec codec
}

func (t *tarball) CompressedSize() int64 { return t.size }

func (t *tarball) Unpack(dest string, progress func(int64)) error {
	file, err := os.Open(t.path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	stream, err := t.codec(&countingReader{reader: file, progress: progress})
	if err != nil {
		return fmt.Errorf("could not decompress %s: %w", filepath.Base(t.path), err)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	tr := tar.NewReader(stream)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("corrupt archive %s: %w", filepath.Base(t.path), err)
		}

		if err := extractTarEntry(header, tr, dest); err != nil {
			return fmt.Errorf("failed to extract %s: %w", header.Name, err)
		}
	}
}

func extractTarEntry(header *tar.Header, r io.Reader, dest string) error {
	path, err := safeJoin(dest, header.Name)
	if err != nil {
		return err
	}

	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(path, 0755)

	case tar.TypeReg:
		return writeFile(path, r, os.FileMode(header.Mode))

	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		_ = os.Remove(path)
		return os.Symlink(header.Linkname, path)

	case tar.TypeLink:
		target, err := safeJoin(dest, header.Linkname)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		return os.Link(target, path)

	default:
		// Skip other types
		return nil
	}
}
