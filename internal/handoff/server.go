package handoff

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/harmony"
	"github.com/jmylchreest/rickrack/internal/security"
	"github.com/jmylchreest/rickrack/internal/session"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 64 * 1024

// idleTimeout closes connections that stay silent.
const idleTimeout = 2 * time.Minute

// Options configures a Server.
type Options struct {
	// Addr is the loopback listen address.
	Addr string

	// Logger receives protocol activity. Nil disables logging.
	Logger hclog.Logger

	// OnRequest is called, outside the session lock, for every accepted
	// file exchange request.
	OnRequest func(Request)
}

// Server serialises access to a session for local peers.
type Server struct {
	mu        sync.Mutex
	sess      *session.Session
	choosing  bool
	requests  map[Exchange]string
	onRequest func(Request)

	addr   string
	logger hclog.Logger

	lnMu sync.Mutex
	ln   net.Listener
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// New creates a server for sess. The address must be on the loopback
// interface.
func New(sess *session.Session, opts Options) (*Server, error) {
	if err := security.ValidateLoopbackAddr(opts.Addr); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		sess:      sess,
		requests:  make(map[Exchange]string),
		onRequest: opts.OnRequest,
		addr:      opts.Addr,
		logger:    logger,
		stop:      make(chan struct{}),
	}, nil
}

// Listen binds the listen address. Serve calls it when needed.
func (s *Server) Listen() error {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	s.logger.Info("handoff listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled or a peer sends exit.
// Open connections are closed before it returns.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.lnMu.Lock()
	ln := s.ln
	s.lnMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Shutdown()
		case <-s.stop:
		}
		ln.Close()
	}()

	var (
		connMu sync.Mutex
		conns  = make(map[net.Conn]struct{})
	)
	defer func() {
		connMu.Lock()
		for c := range conns {
			c.Close()
		}
		connMu.Unlock()
		s.wg.Wait()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stop:
				s.logger.Debug("handoff stopped")
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		connMu.Lock()
		conns[conn] = struct{}{}
		connMu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
			connMu.Lock()
			delete(conns, conn)
			connMu.Unlock()
		}()
	}
}

// Shutdown stops Serve. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.once.Do(func() { close(s.stop) })
}

// Done is closed once the server has been asked to stop.
func (s *Server) Done() <-chan struct{} { return s.stop }

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	s.logger.Debug("peer connected", "peer", peer)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	w := bufio.NewWriter(conn)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
		if !scanner.Scan() {
			break
		}
		reply, exit := s.Handle(scanner.Text())
		if _, err := w.WriteString(reply + "\n"); err != nil {
			s.logger.Debug("write failed", "peer", peer, "error", err)
			return
		}
		if err := w.Flush(); err != nil {
			s.logger.Debug("write failed", "peer", peer, "error", err)
			return
		}
		if exit {
			s.Shutdown()
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("read failed", "peer", peer, "error", err)
	}
}

// Handle executes one request line and returns the reply and whether the
// peer asked the server to stop.
func (s *Server) Handle(line string) (string, bool) {
	cmd, args := splitCommand(line)

	s.mu.Lock()
	reply, req, err := s.dispatch(cmd, args)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("request rejected", "cmd", cmd, "error", err)
		return errorReply(err), false
	}
	s.logger.Debug("request handled", "cmd", cmd)
	if req != nil && s.onRequest != nil {
		s.onRequest(*req)
	}
	return reply, cmd == CmdExit
}

// dispatch runs with s.mu held.
func (s *Server) dispatch(cmd, args string) (string, *Request, error) {
	switch cmd {
	case CmdColorIndex:
		i, rgb, err := parseColorIndex(args)
		if err != nil {
			return "", nil, err
		}
		c := colour.FromRGB(int(rgb[0]), int(rgb[1]), int(rgb[2]))
		s.sess.SetSlot(i, c)
		s.sess.Backup()
		return ReplyOK, nil, nil

	case CmdStartChoice:
		s.choosing = true
		return ReplyOK, nil, nil

	case CmdChoiceStatus:
		if s.choosing {
			return "1", nil, nil
		}
		return "0", nil, nil

	case CmdImportProject, CmdExportProject, CmdImportPalette, CmdExportPalette:
		ex := Exchange(cmd)
		validate := security.ValidatePalettePath
		if ex.IsProject() {
			validate = security.ValidateProjectPath
		}
		if err := validate(args); err != nil {
			return "", nil, err
		}
		s.requests[ex] = args
		return ReplyOK, &Request{Exchange: ex, Path: args}, nil

	case CmdData:
		return EncodeData(s.sess.Rule(), s.sess.Activated(), hexes(s.sess), s.sess.Board()), nil, nil

	case CmdSession:
		return s.sess.ID.String(), nil, nil

	case CmdExit:
		return ReplyOK, nil, nil

	case "":
		return "", nil, fmt.Errorf("%w: empty request", ErrUnknownCommand)
	}
	return "", nil, fmt.Errorf("%w: %s", ErrUnknownCommand, strconv.Quote(cmd))
}

// Choosing reports whether a peer is waiting for the user to pick a colour.
func (s *Server) Choosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choosing
}

// ResolveChoice ends a pending choice; stat then reports 0.
func (s *Server) ResolveChoice() {
	s.mu.Lock()
	s.choosing = false
	s.mu.Unlock()
}

// Pending returns and clears the last path requested for ex.
func (s *Server) Pending(ex Exchange) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.requests[ex]
	delete(s.requests, ex)
	return path, ok
}

// WithSession runs fn with exclusive access to the session.
func (s *Server) WithSession(fn func(*session.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.sess)
}

func hexes(sess *session.Session) [harmony.Slots]string {
	var out [harmony.Slots]string
	for i, c := range sess.Slots() {
		out[i] = c.Hex()
	}
	return out
}
