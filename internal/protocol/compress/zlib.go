// Package compress provides the zlib codec used for CM capture windows.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

var ErrSizeMismatch = errors.New("compress: decompressed size mismatch")

// Zlib inflates zlib streams, the format the game server's zipCompress emits.
type Zlib struct{}

// Decompress inflates compressed and requires exactly decompressedLen bytes of output.
func (Zlib) Decompress(compressed []byte, decompressedLen int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make([]byte, decompressedLen)
	if _, err := io.ReadFull(r, out); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: want %d bytes", ErrSizeMismatch, decompressedLen)
		}
		return nil, err
	}
	// Reading on to EOF verifies the adler32 trailer.
	n, err := io.Copy(io.Discard, io.LimitReader(r, 1))
	if n > 0 {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSizeMismatch, decompressedLen)
	}
	if err != nil {
		return nil, fmt.Errorf("compress: stream trailer: %w", err)
	}
	return out, nil
}

// Compress deflates p into a zlib stream.
func Compress(p []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(p)
	_ = w.Close()
	return buf.Bytes()
}
