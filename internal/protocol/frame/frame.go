package frame

import (
	"errors"
	"fmt"

	"github.com/danmuck/stressbot/internal/protocol/queue"
)

// Delimiter terminates every text frame.
const Delimiter byte = '#'

var (
	ErrWindowTooLarge = errors.New("frame: declared binary window too large")
	ErrWindowArmed    = errors.New("frame: binary window already armed")
	ErrDecompress     = errors.New("frame: decompress captured payload")
)

// Mode identifies which framing rule is active.
type Mode int

const (
	Scanning Mode = iota
	SkippingBinary
	CapturingBinary
)

func (m Mode) String() string {
	switch m {
	case Scanning:
		return "scanning"
	case SkippingBinary:
		return "skipping_binary"
	case CapturingBinary:
		return "capturing_binary"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// State is the framer state. Remaining is meaningful while skipping;
// CompressedLen, DecompressedLen and Collected while capturing.
type State struct {
	Mode            Mode
	Remaining       int
	CompressedLen   int
	DecompressedLen int
	Collected       int
}

// Frame is one complete protocol unit. Synthetic frames come from a
// decompressed capture window rather than from the delimiter scan.
type Frame struct {
	Payload   []byte
	Synthetic bool
}

func (f Frame) String() string {
	return string(f.Payload)
}

// Decompressor inflates a captured window to exactly decompressedLen bytes.
type Decompressor interface {
	Decompress(compressed []byte, decompressedLen int) ([]byte, error)
}

// Limits constrains declared window sizes.
type Limits struct {
	MaxWindowBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxWindowBytes: 64 * 1024 * 1024,
	}
}

// DropFunc observes a captured payload that could not become a frame.
type DropFunc func(st State, err error)

// Framer reconstructs frames from an arbitrarily chunked byte stream.
// A Framer is owned by one session and is not safe for concurrent use.
type Framer struct {
	q      queue.Queue
	st     State
	codec  Decompressor
	limits Limits
	onDrop DropFunc
}

type Option func(*Framer)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(f *Framer) { f.limits = l }
}

// WithDropHook registers fn for dropped capture windows.
func WithDropHook(fn DropFunc) Option {
	return func(f *Framer) { f.onDrop = fn }
}

func NewFramer(codec Decompressor, opts ...Option) *Framer {
	f := &Framer{
		codec:  codec,
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Ingest appends received bytes. It never blocks and never fails.
func (f *Framer) Ingest(p []byte) {
	f.q.Append(p)
}

// Buffered returns the number of bytes held but not yet framed or skipped.
func (f *Framer) Buffered() int {
	return f.q.Len()
}

func (f *Framer) State() State {
	return f.st
}

// Pending reports whether a skip or capture window is still outstanding.
func (f *Framer) Pending() bool {
	return f.st.Mode != Scanning
}

// Skip arms a window of n bytes that are consumed unread.
func (f *Framer) Skip(n int) error {
	if err := f.checkArm(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	f.st = State{Mode: SkippingBinary, Remaining: n}
	return nil
}

// Capture arms a window of compressedLen bytes that is inflated into a
// synthetic frame of decompressedLen bytes once fully buffered.
func (f *Framer) Capture(compressedLen, decompressedLen int) error {
	if err := f.checkArm(compressedLen); err != nil {
		return err
	}
	if decompressedLen < 0 || decompressedLen > f.limits.MaxWindowBytes {
		return fmt.Errorf("%w: decompressed=%d", ErrWindowTooLarge, decompressedLen)
	}
	f.st = State{Mode: CapturingBinary, CompressedLen: compressedLen, DecompressedLen: decompressedLen}
	return nil
}

func (f *Framer) checkArm(n int) error {
	if f.st.Mode != Scanning {
		return fmt.Errorf("%w: %s", ErrWindowArmed, f.st.Mode)
	}
	if n < 0 || n > f.limits.MaxWindowBytes {
		return fmt.Errorf("%w: %d", ErrWindowTooLarge, n)
	}
	return nil
}

// Next extracts at most one frame from buffered bytes. ok is false when no
// complete frame is available yet; the caller should ingest more and retry.
func (f *Framer) Next() (Frame, bool) {
	if f.st.Mode == SkippingBinary {
		f.st.Remaining -= f.q.Discard(f.st.Remaining)
		if f.st.Remaining > 0 {
			return Frame{}, false
		}
		f.st = State{}
	}

	if f.st.Mode == CapturingBinary {
		return f.capture()
	}

	i := f.q.IndexByte(Delimiter)
	if i < 0 {
		return Frame{}, false
	}
	payload := f.q.Next(i)
	f.q.Discard(1)
	return Frame{Payload: payload}, true
}

func (f *Framer) capture() (Frame, bool) {
	st := f.st
	st.Collected = min(f.q.Len(), st.CompressedLen)
	if f.q.Len() < st.CompressedLen {
		f.st = st
		return Frame{}, false
	}
	compressed := f.q.Next(st.CompressedLen)
	f.st = State{}

	out, err := f.codec.Decompress(compressed, st.DecompressedLen)
	if err != nil {
		f.drop(st, fmt.Errorf("%w: %w", ErrDecompress, err))
		return Frame{}, false
	}
	return Frame{Payload: out, Synthetic: true}, true
}

func (f *Framer) drop(st State, err error) {
	if f.onDrop != nil {
		f.onDrop(st, err)
	}
}
