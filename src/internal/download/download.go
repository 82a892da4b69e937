// Package download streams tool archives over HTTP into the inventory cache.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/schollz/progressbar/v3"
)

// Client is the HTTP client used for archive downloads. Archives can be
// large, so it carries no overall timeout.
var Client = &http.Client{}

// File downloads url to destPath. The body is streamed into a temp file next
// to destPath, which is renamed into place only once complete; a .sha256
// sidecar records its digest for later reuse.
func File(ctx context.Context, url, destPath string) error {
	ui.Debug("Starting download: %s", url)
	ui.Debug("Destination: %s", destPath)

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create %s", destDir)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "invalid download URL %s", url)
	}

	resp, err := Client.Do(req)
	if err != nil {
		ui.Debug("HTTP request failed: %v", err)
		return errs.Wrap(errs.Network, err, "could not download %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	ui.Debug("HTTP response: %s", resp.Status)
	if err := checkStatus(resp, url); err != nil {
		return err
	}

	out, err := os.CreateTemp(destDir, "."+filepath.Base(destPath)+".*.part")
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create download file in %s", destDir)
	}
	tmpPath := out.Name()
	defer func() {
		_ = out.Close()
		_ = os.Remove(tmpPath)
	}()

	size := resp.ContentLength
	ui.Debug("Content-Length: %d bytes", size)

	hasher := sha256.New()
	writers := []io.Writer{out, hasher}
	bar := newBar(size, filepath.Base(destPath))
	if bar != nil {
		writers = append(writers, bar)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), resp.Body); err != nil {
		ui.Debug("Download failed: %v", err)
		return errs.Wrap(errs.Network, err, "download of %s was interrupted", url)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := out.Close(); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not write %s", tmpPath)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if err := writeSidecar(destPath, sum); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not record checksum for %s", destPath)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not move download to %s", destPath)
	}

	ui.Debug("Download complete: %s (sha256 %s)", destPath, sum)
	return nil
}

// Get fetches a small document such as a version index.
func Get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "invalid URL %s", url)
	}
	req.Header.Set("Accept", "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Network, err, "could not fetch %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp, url); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Network, err, "could not read %s", url)
	}
	return data, nil
}

func checkStatus(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errs.New(errs.VersionNotFound, "%s was not found (HTTP %s)", url, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errs.New(errs.Network, "download failed (HTTP %s): %s", resp.Status, url)
	}
	return nil
}

// newBar returns a byte progress bar on stderr, or nil when stderr is not a terminal.
func newBar(size int64, description string) *progressbar.ProgressBar {
	if !ui.IsTerminal() {
		return nil
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("Fetching %s", description)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
	)
}
