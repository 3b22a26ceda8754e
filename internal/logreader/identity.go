package logreader

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Identify returns a key naming the content of the log file at path rather
// than its name, so a checkpoint follows the file through logrotate renames
// and compression. The key is the SHA256 of the first complete line,
// decompressed, terminator included; the kernel timestamp and uptime in it
// differ between files.
//
// An empty key means the file has no complete line yet and cannot be
// identified.
func Identify(path string, maxLineSize int) (string, error) {
	f, input, closer, err := openStream(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if closer != nil {
		defer closer.Close()
	}

	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	first, err := bufio.NewReaderSize(io.LimitReader(input, int64(maxLineSize)+1), defaultBufferSize).ReadBytes('\n')
	switch {
	case errors.Is(err, io.EOF):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to read first line of %s: %w", path, err)
	}
	first = bytes.TrimPrefix(first, []byte(utf8BOM))

	sum := sha256.Sum256(first)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
