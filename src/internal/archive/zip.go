package archive

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zip"
)

type zipArchive struct {
	path string
	size int64
}

func (z *zipArchive) CompressedSize() int64 { return z.size }

func (z *zipArchive) Unpack(dest string, progress func(int64)) error {
	reader, err := zip.OpenReader(z.path)
	if err != nil {
		return fmt.Errorf("corrupt archive %s: %w", z.path, err)
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	var consumed int64
	for _, file := range reader.File {
		if err := extractZipFile(file, dest); err != nil {
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
		consumed += int64(file.CompressedSize64)
		if progress != nil {
			progress(consumed)
		}
	}
	return nil
}

func extractZipFile(file *zip.File, dest string) error {
	path, err := safeJoin(dest, file.Name)
	if err != nil {
		return err
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(path, 0755)
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	return writeFile(path, src, file.Mode())
}
