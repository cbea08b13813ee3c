// Package server exposes the interpreter as a run service over a Unix
// socket speaking length-prefixed JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"fortio.org/log"
)

const (
	Name    = "sexpr"
	Version = "1.0.0"
)

// Server accepts client connections and answers run, traces and history
// requests. Requests on one connection are handled in order.
type Server struct {
	svc      *Service
	listener net.Listener
	sockPath string

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// Listen removes a stale socket at sockPath and starts listening there.
func Listen(sockPath string, svc *Service) (*Server, error) {
	os.Remove(sockPath)
	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", sockPath, err)
	}
	return &Server{
		svc:      svc,
		listener: listener,
		sockPath: sockPath,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

func (s *Server) Addr() string { return s.sockPath }

// Serve accepts connections until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return nil
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()
		go s.handleConnection(conn)
	}
}

// Shutdown stops accepting, closes open connections and waits for their
// handlers to return.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.listener.Close()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	os.Remove(s.sockPath)
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		s.wg.Done()
	}()

	for {
		msg, err := ReadMsg(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warnf("read client message: %v", err)
			}
			return
		}

		resp := s.svc.Handle(context.Background(), msg)
		if err := WriteMsg(conn, resp); err != nil {
			log.Warnf("write client response: %v", err)
			return
		}
	}
}
