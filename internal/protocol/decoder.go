package protocol

import (
	"fmt"

	"github.com/danmuck/stressbot/internal/protocol/frame"
)

// Decoder turns received bytes into classified messages. MC and CM headers
// arm the framer's skip and capture windows before they are returned.
type Decoder struct {
	framer *frame.Framer
}

func NewDecoder(f *frame.Framer) *Decoder {
	return &Decoder{framer: f}
}

func (d *Decoder) Ingest(p []byte) {
	d.framer.Ingest(p)
}

// Pending reports whether a binary window is still outstanding.
func (d *Decoder) Pending() bool {
	return d.framer.Pending()
}

func (d *Decoder) State() frame.State {
	return d.framer.State()
}

// Next returns the next message, or false when more bytes are needed.
func (d *Decoder) Next() (Message, bool) {
	f, ok := d.framer.Next()
	if !ok {
		return nil, false
	}
	msg := Classify(f)
	switch m := msg.(type) {
	case MapChunkHeader:
		if err := d.framer.Skip(m.CompressedSkipLen); err != nil {
			return Malformed{Type: m.Kind(), Text: f.String(), Err: fmt.Errorf("%w: %w", ErrMalformedHeader, err)}, true
		}
	case CompressedMessageHeader:
		if err := d.framer.Capture(m.CompressedLen, m.DecompressedLen); err != nil {
			return Malformed{Type: m.Kind(), Text: f.String(), Err: fmt.Errorf("%w: %w", ErrMalformedHeader, err)}, true
		}
	}
	return msg, true
}
