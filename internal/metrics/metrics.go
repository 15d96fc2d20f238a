// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package metrics serves the prometheus metrics of the process.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ChainSafe/rtapi/internal/httpserver"
	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "metrics"))

var errStopTimeout = errors.New("metrics server exit timeout")

// Server is a metrics http server
type Server struct {
	cancel context.CancelFunc
	server *httpserver.Server
	done   chan error
}

// NewServer returns a server exposing the metrics of the default
// prometheus registry under /metrics.
func NewServer(address string) *Server {
	return NewServerWithGatherer(address, prometheus.DefaultGatherer)
}

// NewServerWithGatherer returns a server exposing the metrics of gatherer.
func NewServerWithGatherer(address string, gatherer prometheus.Gatherer) *Server {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{
		server: httpserver.New("metrics", address, m, logger),
	}
}

// Start starts serving in the background and returns once the server
// listens.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	ready := make(chan struct{})
	s.done = make(chan error, 1)

	go s.server.Run(ctx, ready, s.done)

	select {
	case <-ready:
		logger.Infof("serving metrics at http://%s/metrics", s.server.GetAddress())
		return nil
	case err := <-s.done:
		cancel()
		return fmt.Errorf("starting metrics server: %w", err)
	}
}

// Address returns the address the server listens on.
func (s *Server) Address() string {
	return s.server.GetAddress()
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.cancel()
	select {
	case err := <-s.done:
		return err
	case <-time.After(30 * time.Second):
		return errStopTimeout
	}
}
