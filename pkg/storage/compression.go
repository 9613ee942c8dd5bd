package storage

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Decompress inflates gzip or zstd data. Anything else is returned as is.
func Decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)

	case bytes.HasPrefix(data, zstdMagic):
		decoder, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create decoder: %w", err)
		}
		defer decoder.Close()
		return io.ReadAll(decoder)
	}

	return data, nil
}

// CompressFor compresses data according to the suffix of name: ".gz" selects
// gzip, ".zst" selects zstd, anything else leaves the data untouched.
func CompressFor(name string, data []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case strings.HasSuffix(name, ".zst"):
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, make([]byte, 0, len(data))), nil
	}

	return data, nil
}

// WriteCompressed compresses data for name and writes it through store.
func WriteCompressed(store Storage, name string, data []byte) error {
	out, err := CompressFor(name, data)
	if err != nil {
		return fmt.Errorf("compress %s: %w", name, err)
	}
	return store.WriteFile(name, out)
}
