// Package server implements the TCP front end that dispatches request
// records to an engine.Engine and writes back one response record per
// request (§4.5), shaped after tokmesh-go's localserver accept loop.
package server

import (
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/lskv/lskv/internal/engine"
	"github.com/lskv/lskv/internal/pool"
	"github.com/lskv/lskv/internal/record"
)

// DefaultPoolSize is the worker count used when the caller does not
// override it (§4.5 step 2).
const DefaultPoolSize = 4

// Server binds a TCP listener and dispatches each accepted connection
// onto a worker pool, where it is served against a shared engine
// handle.
type Server struct {
	addr     string
	engine   engine.Engine
	pool     pool.ThreadPool
	listener net.Listener
}

// New stores the listening address and the engine handle that every
// connection will be served against (§4.5).
func New(addr string, eng engine.Engine, workers pool.ThreadPool) *Server {
	return &Server{addr: addr, engine: eng, pool: workers}
}

// Listen binds the TCP address, making Addr available. Bind failure is
// returned to the caller, who is expected to treat it as fatal per
// §4.5 step 1.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.addr = ln.Addr().String()
	return nil
}

// Addr returns the address the server is bound to. Only meaningful
// after a successful Listen.
func (s *Server) Addr() string {
	return s.addr
}

// Serve runs the accept loop against an already-bound listener until
// it is closed. Call Listen first.
func (s *Server) Serve() error {
	slog.Info("server: listening", "addr", s.addr)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("server: accept failed", "err", err)
			continue
		}

		eng := s.engine
		s.pool.Spawn(func() {
			handleStream(eng, conn)
		})
	}
}

// ListenAndServe binds addr and runs the accept loop until the
// listener is closed (§4.5 steps 1-4).
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Close stops accepting new connections and releases the worker pool.
func (s *Server) Close() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	if poolErr := s.pool.Close(); poolErr != nil && err == nil {
		err = poolErr
	}
	return err
}

// handleStream reads requests from conn until EOF, running each
// against eng and writing back exactly one response record. A decode
// error terminates the connection without emitting a response for the
// failing record (§4.5).
func handleStream(eng engine.Engine, conn net.Conn) {
	defer conn.Close()

	reader := record.NewReader(conn)
	for {
		req, err := reader.ReadRequest()
		if err == io.EOF {
			return
		}
		if err != nil {
			slog.Error("server: malformed request, closing connection", "err", err)
			return
		}

		resp := dispatch(eng, req)
		data, err := record.Encode(resp)
		if err != nil {
			slog.Error("server: failed to encode response", "err", err)
			return
		}
		if _, err := conn.Write(data); err != nil {
			slog.Error("server: failed to write response", "err", err)
			return
		}
	}
}

// dispatch runs one decoded request against eng and builds its
// response, surfacing engine errors as is_ok=false (§6.1).
func dispatch(eng engine.Engine, req record.Request) record.Response {
	switch {
	case req.Set != nil:
		if err := eng.Set(req.Set.Key, req.Set.Value); err != nil {
			return record.Response{IsOk: false, Data: err.Error()}
		}
		return record.Response{IsOk: true, Data: ""}

	case req.Get != nil:
		value, ok, err := eng.Get(req.Get.Key)
		if err != nil {
			return record.Response{IsOk: false, Data: err.Error()}
		}
		if !ok {
			return record.Response{IsOk: true, Data: ""}
		}
		return record.Response{IsOk: true, Data: value}

	case req.Rm != nil:
		if err := eng.Remove(req.Rm.Key); err != nil {
			return record.Response{IsOk: false, Data: err.Error()}
		}
		return record.Response{IsOk: true, Data: ""}

	default:
		return record.Response{IsOk: false, Data: "empty request"}
	}
}
