package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/stressbot/internal/observability"
	"github.com/danmuck/stressbot/internal/protocol"
	"github.com/danmuck/stressbot/internal/protocol/compress"
	"github.com/danmuck/stressbot/internal/protocol/frame"
)

// Identity is the account a session logs in with.
type Identity struct {
	Label     string
	Email     string
	Password1 string
	Password2 string
}

// Result summarizes a finished session.
type Result struct {
	Label     string
	State     State
	Entity    TrackedEntity
	MovesSent int
	Frames    int
	Received  int
	Lifetime  time.Duration
}

type Option func(*Session)

// WithDecompressor replaces the zlib codec used for CM windows.
func WithDecompressor(d frame.Decompressor) Option {
	return func(s *Session) { s.codec = d }
}

// WithLimits bounds declared binary window sizes.
func WithLimits(l frame.Limits) Option {
	return func(s *Session) { s.limits = l }
}

// Session is one client's state machine. It is not safe for concurrent use.
type Session struct {
	id     Identity
	cfg    Config
	tr     Transport
	codec  frame.Decompressor
	limits frame.Limits
	dec    *protocol.Decoder
	logger logs.Logger

	state    State
	entity   TrackedEntity
	lastMove Vec
	buf      []byte
	idle     int
	lost     error

	moves    int
	frames   int
	received int
}

func New(tr Transport, id Identity, cfg Config, opts ...Option) (*Session, error) {
	if strings.TrimSpace(id.Email) == "" {
		return nil, ErrEmailRequired
	}
	if id.Label == "" {
		id.Label = id.Email
	}
	cfg = cfg.WithDefaults()
	s := &Session{
		id:     id,
		cfg:    cfg,
		tr:     tr,
		codec:  compress.Zlib{},
		limits: frame.DefaultLimits(),
		logger: logs.With().Str("client", id.Label).Logger(),
		state:  Connecting,
		entity: newTrackedEntity(),
		buf:    make([]byte, cfg.ReadChunk),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dec = protocol.NewDecoder(frame.NewFramer(s.codec,
		frame.WithLimits(s.limits),
		frame.WithDropHook(s.onDrop),
	))
	return s, nil
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Entity() TrackedEntity {
	return s.entity
}

// Run logs in and plays until the tracked entity dies, the transport is
// lost or ctx is done. The returned error is never nil: ErrDied for Dead,
// ErrTransportLoss, ErrStalled or the context error for Disconnected.
func (s *Session) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	observability.RecordSessionStart()
	defer func() {
		observability.RecordSessionEnd(s.state.String(), time.Since(start))
	}()

	err := s.login()
	for err == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = s.disconnect(ctxErr)
			break
		}
		err = s.step()
	}

	res := s.result(time.Since(start))
	s.logger.Info().
		Str("state", s.state.String()).
		Int("moves", res.MovesSent).
		Int("frames", res.Frames).
		Err(err).
		Msg("session ended")
	return res, err
}

func (s *Session) result(lifetime time.Duration) Result {
	return Result{
		Label:     s.id.Label,
		State:     s.state,
		Entity:    s.entity,
		MovesSent: s.moves,
		Frames:    s.frames,
		Received:  s.received,
		Lifetime:  lifetime,
	}
}

func (s *Session) login() error {
	s.logger.Info().Str("email", s.id.Email).Msg("connected, logging in")
	if err := s.tr.Send(protocol.Login(s.id.Email, s.id.Password1, s.id.Password2)); err != nil {
		return s.disconnect(fmt.Errorf("%w: send login: %w", ErrTransportLoss, err))
	}
	s.transition(AwaitingFirstUpdate)
	return nil
}

// step runs one loop iteration. A non-nil error means the session reached
// a terminal state.
func (s *Session) step() error {
	if s.state == Live && !s.entity.AwaitingMoveAck {
		if err := s.sendMove(); err != nil {
			return err
		}
	}

	msg, err := s.nextMessage()
	if err != nil {
		return s.disconnect(err)
	}
	if msg != nil {
		s.handle(msg)
	}
	if s.state == Dead {
		return ErrDied
	}
	return nil
}

func (s *Session) sendMove() error {
	delta := NextMove(s.lastMove)
	if err := s.tr.Send(protocol.Move(s.entity.X, s.entity.Y, delta.X, delta.Y)); err != nil {
		return s.disconnect(fmt.Errorf("%w: send move: %w", ErrTransportLoss, err))
	}
	s.lastMove = delta
	s.entity.AwaitingMoveAck = true
	s.moves++
	observability.RecordMove()
	s.logger.Debug().
		Int("x", s.entity.X).
		Int("y", s.entity.Y).
		Int("dx", delta.X).
		Int("dy", delta.Y).
		Msg("move sent")
	return nil
}

// nextMessage returns a decoded message, nil when none is ready this
// iteration, or an error when the transport is lost or stalled.
func (s *Session) nextMessage() (protocol.Message, error) {
	if msg, ok := s.dec.Next(); ok {
		return msg, nil
	}
	n, err := s.drain()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if !s.dec.Pending() {
			s.idle = 0
			return nil, nil
		}
		s.idle++
		st := s.dec.State()
		s.logger.Debug().
			Str("mode", st.Mode.String()).
			Int("remaining", st.Remaining).
			Int("collected", st.Collected).
			Int("idle", s.idle).
			Msg("waiting on binary window")
		if s.idle >= s.cfg.MaxIdleReads {
			return nil, fmt.Errorf("%w: %s after %d empty reads", ErrStalled, st.Mode, s.idle)
		}
		return nil, nil
	}
	s.idle = 0
	msg, ok := s.dec.Next()
	if !ok {
		return nil, nil
	}
	return msg, nil
}

// drain performs one bounded read, then keeps reading while bytes are
// immediately available, up to MaxDrainBytes. A loss after some bytes arrived is reported on
// the next call so buffered frames are still handled.
func (s *Session) drain() (int, error) {
	if s.lost != nil {
		return 0, s.lost
	}
	timeout := s.cfg.ReadTimeout
	if s.dec.Pending() {
		timeout = s.cfg.WindowReadTimeout
	}
	total := 0
	for {
		n, err := s.tr.Receive(s.buf, timeout)
		if n > 0 {
			s.dec.Ingest(s.buf[:n])
			total += n
		}
		if err != nil {
			s.lost = fmt.Errorf("%w: %w", ErrTransportLoss, err)
			if total > 0 {
				break
			}
			return 0, s.lost
		}
		if n == 0 || total >= s.cfg.MaxDrainBytes {
			break
		}
		timeout = s.cfg.DrainTimeout
	}
	s.received += total
	observability.RecordBytesReceived(total)
	return total, nil
}

func (s *Session) handle(msg protocol.Message) {
	s.frames++
	switch m := msg.(type) {
	case protocol.Malformed:
		observability.RecordDroppedFrame("malformed_header")
		s.logger.Warn().
			Str("kind", m.Kind()).
			Str("frame", m.Text).
			Err(m.Err).
			Msg("malformed header dropped, framing may desynchronize")
	case protocol.MapChunkHeader:
		observability.RecordFrame(m.Kind(), false)
		s.logger.Trace().Int("skip", m.CompressedSkipLen).Msg("map chunk skipped")
	case protocol.CompressedMessageHeader:
		observability.RecordFrame(m.Kind(), false)
		s.logger.Trace().
			Int("compressed", m.CompressedLen).
			Int("decompressed", m.DecompressedLen).
			Msg("compressed message armed")
	case protocol.RawText:
		observability.RecordFrame(m.Kind(), m.Synthetic)
		if m.Kind() == protocol.KindPlayerUpdate {
			s.handleUpdate(m.Text)
		}
	}
}

func (s *Session) handleUpdate(text string) {
	lines := protocol.UpdateLines(text)
	switch s.state {
	case AwaitingFirstUpdate:
		// The record before the trailer describes this client.
		if len(lines) >= 2 {
			s.entity.Apply(protocol.ParseUpdateLine(lines[len(lines)-2], s.entity.ID))
		}
		if !s.entity.ID.Bound {
			return
		}
		s.logger.Info().
			Int("pid", s.entity.ID.ID).
			Int("x", s.entity.X).
			Int("y", s.entity.Y).
			Msg("first player update")
		s.transition(Live)
	case Live:
		for i := 1; i < len(lines)-1; i++ {
			s.entity.Apply(protocol.ParseUpdateLine(lines[i], s.entity.ID))
		}
	default:
		return
	}
	if !s.entity.Alive {
		s.logger.Info().Int("pid", s.entity.ID.ID).Str("frame", text).Msg("tracked entity died")
		s.transition(Dead)
	}
}

func (s *Session) onDrop(st frame.State, err error) {
	observability.RecordDroppedFrame("decompress")
	s.logger.Warn().
		Int("compressed", st.CompressedLen).
		Int("decompressed", st.DecompressedLen).
		Err(err).
		Msg("compressed message dropped")
}

func (s *Session) disconnect(err error) error {
	s.transition(Disconnected)
	return err
}

func (s *Session) transition(to State) {
	next, err := s.state.Next(to)
	if err != nil {
		s.logger.Error().Err(err).Msg("state transition rejected")
		return
	}
	s.logger.Debug().Str("from", s.state.String()).Str("to", next.String()).Msg("state")
	s.state = next
}
