package compress

import (
	"errors"
	"testing"

	"github.com/danmuck/stressbot/internal/testutil/testlog"
	"github.com/klauspost/compress/zlib"
)

func TestZlibRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := []byte("PU\n7 0 1 0 0 0 0 0 0 0 0 0 0 0 4 5 0 0\n#")
	out, err := Zlib{}.Decompress(Compress(in), len(in))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("payload mismatch: %q", out)
	}
}

func TestZlibSizeMismatch(t *testing.T) {
	testlog.Start(t)
	packed := Compress([]byte("hello"))
	if _, err := (Zlib{}).Decompress(packed, 6); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch for short output, got %v", err)
	}
	if _, err := (Zlib{}).Decompress(packed, 4); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch for long output, got %v", err)
	}
}

func TestZlibRejectsGarbage(t *testing.T) {
	testlog.Start(t)
	if _, err := (Zlib{}).Decompress([]byte{1, 2, 3, 4, 5, 6}, 5); err == nil {
		t.Fatalf("expected error for non-zlib input")
	}
}

func TestZlibRejectsBadChecksum(t *testing.T) {
	testlog.Start(t)
	in := []byte("PU\n7 0 1 0 0 0 0 0 0 0 0 0 0 0 4 5 0 0\n#")
	packed := Compress(in)
	packed[len(packed)-1] ^= 0xff
	out, err := Zlib{}.Decompress(packed, len(in))
	if !errors.Is(err, zlib.ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got out=%q err=%v", out, err)
	}
}

func TestZlibRejectsMissingTrailer(t *testing.T) {
	testlog.Start(t)
	in := []byte("PU\n7 0 1 0 0 0 0 0 0 0 0 0 0 0 4 5 0 0\n#")
	packed := Compress(in)
	if _, err := (Zlib{}).Decompress(packed[:len(packed)-4], len(in)); err == nil {
		t.Fatalf("expected error for stream without adler32 trailer")
	}
}
