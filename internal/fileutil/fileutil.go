// Package fileutil holds file copy helpers shared by pipeline stages.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyVerified copies src to dst with SHA256 + size verification. Data is
// written to a hidden temp file beside dst and renamed into place, so dst
// never holds a partial copy. Returns the number of bytes copied.
func CopyVerified(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return 0, fmt.Errorf("copy source %s is not a regular file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		return written, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}

	if written != srcInfo.Size() {
		return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return written, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return written, fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return written, nil
}
