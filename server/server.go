package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/nixxel-company-limited/tspl-label-printer/adapter"
)

// OpenFunc opens a fresh adapter for one print job.
type OpenFunc func() (adapter.Adapter, error)

// Server is a raw TCP relay: every client connection is one print job whose
// bytes are forwarded to a newly opened adapter, finalized on disconnect.
type Server struct {
	open     OpenFunc
	listener net.Listener
	address  string
	mu       sync.Mutex
	running  bool
	wg       sync.WaitGroup
	logger   *log.Logger
}

// New creates a new server instance
func New(open OpenFunc, address string) *Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags|log.Lmsgprefix)
	return NewWithLogger(open, address, logger)
}

// NewWithLogger creates a new server instance with a custom logger
func NewWithLogger(open OpenFunc, address string, logger *log.Logger) *Server {
	return &Server{
		open:    open,
		address: address,
		logger:  logger,
	}
}

// listen binds the listener. The caller must hold s.mu.
func (s *Server) listen(mode string) error {
	s.logger.Printf("Starting server on %s (%s mode)", s.address, mode)

	if s.running {
		s.logger.Println("Error: Server already running")
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Printf("Error: Failed to start server: %v", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true
	s.logger.Printf("Server listening on %s", listener.Addr())
	return nil
}

// Start starts the TCP server and blocks until Stop is called
func (s *Server) Start() error {
	s.mu.Lock()
	err := s.listen("blocking")
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Println("Ready to accept connections")
	s.wg.Add(1)
	s.acceptConnections()
	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	s.mu.Lock()
	err := s.listen("async")
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go s.acceptConnections()
	s.logger.Println("Server started in background, ready to accept connections")
	return nil
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()

			if !running {
				s.logger.Println("Server shutting down, stopping accept loop")
				return
			}
			s.logger.Printf("Error accepting connection: %v", err)
			continue
		}

		s.logger.Printf("Client connected from %s", conn.RemoteAddr())
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection relays one client's bytes as a single job
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.logger.Printf("Client disconnected: %s", conn.RemoteAddr())
		conn.Close()
	}()

	job := uuid.NewString()
	clientAddr := conn.RemoteAddr().String()
	s.logger.Printf("Job %s: handling connection from %s", job, clientAddr)

	device, err := s.open()
	if err != nil {
		s.logger.Printf("Job %s: error opening adapter: %v", job, err)
		return
	}

	total := 0
	err = adapter.Use(device, s.logger, func(a adapter.Adapter) error {
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				written, writeErr := a.Write(buf[:n])
				if writeErr != nil {
					return fmt.Errorf("failed to write to adapter: %w", writeErr)
				}
				total += written
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					s.logger.Printf("Job %s: client %s closed connection", job, clientAddr)
					return nil
				}
				return fmt.Errorf("failed to read from client: %w", err)
			}
		}
	})
	if err != nil {
		s.logger.Printf("Job %s: error: %v", job, err)
		return
	}
	s.logger.Printf("Job %s: relayed %d bytes to printer", job, total)
}

// Stop stops the TCP server and waits for in-flight jobs to finish
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Println("Stop called but server is not running")
		return nil
	}

	s.logger.Println("Stopping server...")
	s.running = false
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	s.logger.Println("Waiting for active connections to close...")
	s.wg.Wait()
	s.logger.Println("Server stopped successfully")
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the configured listen address
func (s *Server) Address() string {
	return s.address
}

// ListenAddress returns the bound address, or nil when not running
func (s *Server) ListenAddress() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || !s.running {
		return nil
	}
	return s.listener.Addr()
}
