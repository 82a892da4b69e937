package download

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// SidecarSuffix is appended to an archive path to name its checksum file.
const SidecarSuffix = ".sha256"

// ErrChecksumMismatch is returned when a file's checksum doesn't match.
type ErrChecksumMismatch struct {
	Expected string
	Actual   string
}

func (e *ErrChecksumMismatch) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Verified reports whether a cached archive exists and matches its sidecar.
// An archive without a sidecar is never trusted.
func Verified(path string) bool {
	expected, err := os.ReadFile(path + SidecarSuffix)
	if err != nil {
		return false
	}
	return VerifyFile(path, string(expected)) == nil
}

// VerifyFile checks if an existing file matches the expected SHA256 checksum.
func VerifyFile(filePath, expectedSHA256 string) error {
	actualSHA256, err := ComputeSHA256(filePath)
	if err != nil {
		return err
	}

	// Normalize both checksums to lowercase for comparison
	expectedNorm := strings.ToLower(strings.TrimSpace(expectedSHA256))
	if actualSHA256 != expectedNorm {
		return &ErrChecksumMismatch{
			Expected: expectedSHA256,
			Actual:   actualSHA256,
		}
	}

	return nil
}

// ComputeSHA256 computes the SHA256 checksum of a file.
func ComputeSHA256(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Discard removes a cached archive and its sidecar.
func Discard(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + SidecarSuffix)
}

func writeSidecar(path, sum string) error {
	return os.WriteFile(path+SidecarSuffix, []byte(sum+"\n"), 0644)
}
