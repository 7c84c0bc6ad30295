package dexy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
)

// CopyBufferSize is the size of the buffer a file is streamed through while
// it is hashed.
const CopyBufferSize = 64 * 1024

var copyBuffers = sync.Pool{
	New: func() any {
		buf := make([]byte, CopyBufferSize)
		return &buf
	},
}

// Digest streams r through SHA-256 and returns the lowercase hex digest.
func Digest(r io.Reader) (string, error) {
	buf := copyBuffers.Get().(*[]byte)
	defer copyBuffers.Put(buf)

	// Hiding r's WriteTo keeps io.CopyBuffer on the pooled buffer.
	hash := sha256.New()
	if _, err := io.CopyBuffer(hash, struct{ io.Reader }{r}, *buf); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Sha256Sum returns the SHA-256 checksum of the file at the given path.
func Sha256Sum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Digest(file)
}
