// Package server implements the Conversa chat server: per-connection
// sessions, named rooms with broadcast fan-out, and the line-protocol
// dispatcher that ties them together.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/conversa-chat/conversa/pkg/auth"
	"github.com/conversa-chat/conversa/pkg/store"
)

// Dependencies holds external dependencies for the server.
// Server assumes ownership of Store and will Close() it on shutdown.
type Dependencies struct {
	Store    store.DataStore
	Verifier auth.Verifier
}

// Server is the main Conversa server.
type Server struct {
	cfg      Config
	sessions *SessionRegistry
	rooms    *RoomRegistry
	metrics  *Metrics
	store    store.DataStore
	verifier auth.Verifier

	ln     net.Listener
	ctx    context.Context
	cancel context.CancelFunc

	nextSessionID atomic.Uint64
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	metrics := NewMetrics()
	return &Server{
		cfg:      cfg,
		sessions: NewSessionRegistry(),
		rooms:    NewRoomRegistry(cfg.AutoCreateRooms, metrics),
		metrics:  metrics,
		store:    deps.Store,
		verifier: deps.Verifier,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Sessions returns the session registry.
func (s *Server) Sessions() *SessionRegistry { return s.sessions }

// Rooms returns the room registry.
func (s *Server) Rooms() *RoomRegistry { return s.rooms }

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics { return s.metrics }

// StartTCP starts the TCP listener and its accept loop.
func (s *Server) StartTCP() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.ln = ln
	slog.Info("chat listening", "addr", s.cfg.Addr)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
					slog.Error("accept error", "err", err)
					continue
				}
			}
			go s.HandleConn(NewTCPLineConn(conn))
		}
	}()

	return nil
}
