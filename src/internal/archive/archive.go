// Package archive unpacks tool distributions. One Archive abstraction covers
// .tar.gz/.tgz, .tar.xz, .zip and .7z files; the format is chosen by name.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsvm/jsvm/src/internal/download"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// Archive is a distribution file ready to unpack.
type Archive interface {
	// Unpack extracts every entry under dest. progress, when set, receives
	// the number of compressed bytes consumed so far.
	Unpack(dest string, progress func(int64)) error
	// CompressedSize is the archive's size on disk
	CompressedSize() int64
}

// Fetch returns the archive cached at cacheFile, downloading url first when
// the cache is missing or fails its checksum.
func Fetch(ctx context.Context, url, cacheFile string) (Archive, error) {
	if download.Verified(cacheFile) {
		ui.Debug("Using cached archive %s", cacheFile)
		return Load(cacheFile)
	}
	download.Discard(cacheFile)

	if err := download.File(ctx, url, cacheFile); err != nil {
		return nil, err
	}
	return Load(cacheFile)
}

// Load opens a cached archive, picking the format from its file name.
func Load(file string) (Archive, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not open archive %s", file)
	}

	name := strings.ToLower(filepath.Base(file))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return &tarball{path: file, size: info.Size(), codec: gzipCodec}, nil
	case strings.HasSuffix(name, ".tar.xz"):
		return &tarball{path: file, size: info.Size(), codec: xzCodec}, nil
	case strings.HasSuffix(name, ".zip"):
		return &zipArchive{path: file, size: info.Size()}, nil
	case strings.HasSuffix(name, ".7z"):
		return &sevenZip{path: file, size: info.Size()}, nil
	}
	return nil, errs.New(errs.Configuration, "unsupported archive format: %s", filepath.Base(file))
}

// TopLevelDir returns the single directory an archive was unpacked into,
// or dir itself when the archive had no common top-level directory.
func TopLevelDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

// safeJoin resolves an entry name under dest, rejecting paths that escape it.
func safeJoin(dest, name string) (string, error) {
	path := filepath.Join(dest, filepath.FromSlash(name))
	if path != filepath.Clean(dest) && !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}
	return path, nil
}

// writeFile copies r into a new file at path with the given mode.
func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if mode&0777 == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, r); err != nil {
		return err
	}
	return out.Close()
}

// countingReader reports how many bytes have been read through it.
type countingReader struct {
	reader   io.Reader
	progress func(int64)
	current  int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.current += int64(n)
	if cr.progress != nil && n > 0 {
		cr.progress(cr.current)
	}
	return n, err
}
