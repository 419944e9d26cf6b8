package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/stressbot/internal/protocol/frame"
)

const (
	KindMapChunk          = "MC"
	KindCompressedMessage = "CM"
	KindPlayerUpdate      = "PU"
)

// Message is the classified form of one frame.
type Message interface {
	Kind() string
}

// MapChunkHeader announces CompressedSkipLen trailing bytes that are discarded unread.
type MapChunkHeader struct {
	SizeX, SizeY      int
	X, Y              int
	BinarySize        int
	CompressedSkipLen int
}

func (MapChunkHeader) Kind() string { return KindMapChunk }

// CompressedMessageHeader announces a zlib window that inflates into a frame.
type CompressedMessageHeader struct {
	DecompressedLen int
	CompressedLen   int
}

func (CompressedMessageHeader) Kind() string { return KindCompressedMessage }

// RawText is any frame without a binary window.
type RawText struct {
	Type      string
	Text      string
	Synthetic bool
}

func (m RawText) Kind() string { return m.Type }

// Malformed is a header frame whose fields failed to parse. No window is
// armed for it, which can desynchronize the stream.
type Malformed struct {
	Type string
	Text string
	Err  error
}

func (m Malformed) Kind() string { return m.Type }

// Classify interprets f by its leading token.
func Classify(f frame.Frame) Message {
	text := string(f.Payload)
	kind := leadingToken(text)
	switch kind {
	case KindMapChunk:
		vals, err := headerInts(text, kind, 6)
		if err == nil {
			err = nonNegative(kind, vals[4:])
		}
		if err != nil {
			return Malformed{Type: kind, Text: text, Err: err}
		}
		return MapChunkHeader{
			SizeX:             vals[0],
			SizeY:             vals[1],
			X:                 vals[2],
			Y:                 vals[3],
			BinarySize:        vals[4],
			CompressedSkipLen: vals[5],
		}
	case KindCompressedMessage:
		vals, err := headerInts(text, kind, 2)
		if err == nil {
			err = nonNegative(kind, vals)
		}
		if err != nil {
			return Malformed{Type: kind, Text: text, Err: err}
		}
		return CompressedMessageHeader{DecompressedLen: vals[0], CompressedLen: vals[1]}
	default:
		return RawText{Type: kind, Text: text, Synthetic: f.Synthetic}
	}
}

func leadingToken(text string) string {
	if i := strings.IndexAny(text, " \n"); i >= 0 {
		return text[:i]
	}
	return text
}

// headerInts parses the first n whitespace separated fields after the kind token.
func headerInts(text, kind string, n int) ([]int, error) {
	fields := strings.Fields(strings.TrimPrefix(text, kind))
	if len(fields) < n {
		return nil, fmt.Errorf("%w: %s wants %d fields, got %d", ErrMalformedHeader, kind, n, len(fields))
	}
	out := make([]int, n)
	for i := range n {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s field %d: %q", ErrMalformedHeader, kind, i, fields[i])
		}
		out[i] = v
	}
	return out, nil
}

func nonNegative(kind string, sizes []int) error {
	for _, v := range sizes {
		if v < 0 {
			return fmt.Errorf("%w: %s negative size %d", ErrMalformedHeader, kind, v)
		}
	}
	return nil
}
