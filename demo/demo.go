package demo

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"
	"github.com/spaolacci/murmur3"
)

/*
A demo file is a zlib container around a flat stream of length-prefixed frames.
This file handles the container; frame.go splits the decompressed stream.
*/

////////////////////////////////////////////////////////////////////////////////

// OpenFunc loads a demo and returns its decompressed contents.
type OpenFunc func(path string) ([]byte, error)

// Decompress inflates a demo container.
func Decompress(r io.Reader) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open zlib stream: %w", err)
	}
	defer zr.Close()
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return buf.Bytes(), nil
}

// Open reads and decompresses the demo at path. It satisfies OpenFunc.
func Open(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open demo: %w", err)
	}
	defer f.Close()
	buf, err := Decompress(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return buf, nil
}

// Fingerprint returns a hex digest of a decompressed demo, used to recognize
// the same recording under different file names.
func Fingerprint(buf []byte) string {
	hi, lo := murmur3.Sum128(buf)
	return fmt.Sprintf("%016x%016x", hi, lo)
}
