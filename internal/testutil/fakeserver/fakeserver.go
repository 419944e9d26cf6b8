// Package fakeserver runs an in-process game server speaking the login,
// map chunk, compressed message, player update and move grammar.
package fakeserver

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/stressbot/internal/protocol/compress"
)

// Options shapes the scripted world.
type Options struct {
	// DieAfter kills the player after this many moves; 0 never kills.
	DieAfter int
	// DropAfterLogin closes the connection right after the login burst.
	DropAfterLogin bool
	// CompressUpdates wraps move acknowledgements in CM windows.
	CompressUpdates bool
}

type Server struct {
	ln     net.Listener
	opts   Options
	nextID atomic.Int64
	wg     sync.WaitGroup

	mu     sync.Mutex
	logins []string
}

func Start(opts Options) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, opts: opts}
	s.nextID.Store(100)
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Logins returns the emails seen so far.
func (s *Server) Logins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.logins...)
}

func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.serve(conn)
		}()
	}
}

func (s *Server) serve(conn net.Conn) {
	r := bufio.NewReader(conn)
	id := int(s.nextID.Add(1))
	x, y, moves := 0, 0, 0
	for {
		cmd, err := r.ReadString('#')
		if err != nil {
			return
		}
		fields := strings.Fields(strings.TrimSuffix(cmd, "#"))
		if len(fields) == 0 {
			continue
		}
		var out []byte
		switch fields[0] {
		case "LOGIN":
			if len(fields) > 1 {
				s.mu.Lock()
				s.logins = append(s.logins, fields[1])
				s.mu.Unlock()
			}
			out = append(mapChunk(x, y), Update(Record(id+1, "9", "9"), Record(id, "0", "0"))...)
			if _, err := conn.Write(out); err != nil {
				return
			}
			if s.opts.DropAfterLogin {
				return
			}
			continue
		case "MOVE":
			if len(fields) != 5 {
				logs.Warnf("fakeserver: bad move cmd=%q", cmd)
				continue
			}
			moves++
			dx, _ := strconv.Atoi(fields[3])
			dy, _ := strconv.Atoi(fields[4])
			x, y = x+dx, y+dy
			record := Record(id, strconv.Itoa(x), strconv.Itoa(y))
			if s.opts.DieAfter > 0 && moves >= s.opts.DieAfter {
				record = Record(id, "X", "X")
			}
			out = Update(Record(id+1, "1", "1"), record)
			if s.opts.CompressUpdates {
				out = Compressed(out)
			}
		default:
			continue
		}
		if _, err := conn.Write(out); err != nil {
			return
		}
	}
}

// Record builds a 17 field player update record.
func Record(id int, x, y string) string {
	fields := []string{strconv.Itoa(id), "0", "1", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", x, y, "0"}
	return strings.Join(fields, " ")
}

// Update builds a delimited PU frame.
func Update(records ...string) []byte {
	return []byte("PU\n" + strings.Join(records, "\n") + "\n#")
}

// Compressed wraps a frame in a CM header and zlib window.
func Compressed(inner []byte) []byte {
	packed := compress.Compress(inner)
	return append([]byte(fmt.Sprintf("CM\n%d %d#", len(inner), len(packed))), packed...)
}

func mapChunk(x, y int) []byte {
	body := bytes.Repeat([]byte{'#', 0x00}, 64)
	head := fmt.Sprintf("MC\n32 30 %d %d\n%d %d#", x-16, y-15, 32*30*4, len(body))
	return append([]byte(head), body...)
}
