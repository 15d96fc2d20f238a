// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package httpserver runs an HTTP server bound to the lifetime of a context.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// Server is an HTTP server implementation, which uses
// the HTTP handler provided.
type Server struct {
	name       string
	address    string
	addressSet chan struct{}
	handler    http.Handler
	logger     Logger
	optional   optionalSettings
}

// New creates a new HTTP server with a name, listening on
// the address specified and using the HTTP handler provided.
func New(name, address string, handler http.Handler,
	logger Logger, options ...Option) *Server {
	return &Server{
		name:       name,
		address:    address,
		addressSet: make(chan struct{}),
		handler:    handler,
		logger:     logger,
		optional:   newOptionalSettings(options),
	}
}

// GetAddress obtains the address the HTTP server is listening on.
// It blocks until the server is listening or failed to listen.
func (s *Server) GetAddress() (address string) {
	<-s.addressSet
	return s.address
}

// Run runs the HTTP server until ctx is canceled.
// The ready channel is closed once the server listens.
// The done channel receives nil once the server shut down,
// or the error which made it stop.
func (s *Server) Run(ctx context.Context, ready chan<- struct{}, done chan<- error) {
	server := http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: s.optional.readHeaderTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		s.logger.Warn(s.name + " http server shutting down: " + ctx.Err().Error())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.optional.shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			s.logger.Error(s.name + " http server failed shutting down: " + err.Error())
		}
	}()

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		close(s.addressSet)
		done <- err
		return
	}

	s.address = listener.Addr().String()
	close(s.addressSet)
	close(ready)

	s.logger.Info(s.name + " http server listening on " + s.address)

	err = server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		done <- err
		return
	}

	<-shutdownDone
	done <- nil
}
