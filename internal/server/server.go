package server

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"github.com/fenrir-labs/clob/internal/pool"
	"github.com/fenrir-labs/clob/internal/wire"
)

const (
	defaultWorkers     = 10
	maxFrameLen        = 64 * 1024
	defaultConnTimeout = 30 * time.Second
)

var errImproperTask = errors.New("server: worker received non-connection task")

// Server is the TCP front end over a pool.Manager: a fixed worker pool
// accepts and frames connections, and a single goroutine (commandLoop)
// executes every decoded request against the manager, so concurrent
// clients never observe interleaved mutations.
type Server struct {
	listener net.Listener
	manager  *pool.Manager
	log      zerolog.Logger

	pool     WorkerPool
	commands chan command

	cancel context.CancelFunc
}

// New binds a listener on address:port and wires it to manager. Call Run
// to start serving.
func New(address string, port int, manager *pool.Manager, log zerolog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		manager:  manager,
		log:      log.With().Str("component", "server").Logger(),
		pool:     newWorkerPool(defaultWorkers, log),
		commands: make(chan command),
	}, nil
}

// Run serves connections until ctx is cancelled or Shutdown is called.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	t, ctx := tomb.WithContext(ctx)
	s.pool.Setup(t, s.handleConnection)
	t.Go(func() error {
		s.commandLoop(t)
		return nil
	})

	t.Go(func() error {
		<-ctx.Done()
		return s.listener.Close()
	})

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.Error().Err(err).Msg("accept failed")
				return err
			}
		}
		s.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("connection accepted")
		s.pool.Submit(conn)
	}
}

// Shutdown stops accepting new connections and tears down the worker pool
// and command loop.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

// handleConnection services one client connection for its entire
// lifetime: read a length-prefixed request frame, submit it to the
// command loop, write back the length-prefixed response, repeat until the
// client disconnects or the tomb is dying.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return errImproperTask
	}
	defer conn.Close()

	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(defaultConnTimeout))
		frame, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				s.log.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection read failed")
			}
			return nil
		}

		req, err := wire.DecodeRequest(frame)
		if err != nil {
			s.log.Debug().Err(err).Msg("malformed request frame")
			return nil
		}

		replyC := make(chan wire.Response, 1)
		select {
		case s.commands <- command{req: req, replyC: replyC}:
		case <-t.Dying():
			return nil
		}

		var resp wire.Response
		select {
		case resp = <-replyC:
		case <-t.Dying():
			return nil
		}

		respFrame, err := wire.EncodeResponse(resp)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode response")
			return nil
		}
		if err := writeFrame(conn, respFrame); err != nil {
			s.log.Debug().Err(err).Msg("connection write failed")
			return nil
		}
	}
}

// readFrame reads a 4-byte big-endian length prefix followed by that many
// bytes, the framing layer wire's variable-length messages need but the
// retrieval pack's fixed-size-read protocol did not.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameLen {
		return nil, fmt.Errorf("server: frame of %d bytes exceeds max %d", n, maxFrameLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
