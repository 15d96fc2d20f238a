// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pprof

import (
	"context"
	"errors"
	"runtime"

	"github.com/ChainSafe/rtapi/internal/httpserver"
)

// ErrServerDoneBeforeReady is returned by Start when the server stops
// before listening.
var ErrServerDoneBeforeReady = errors.New("server terminated before being ready")

// Service runs the pprof server in the background.
type Service struct {
	settings Settings
	server   *httpserver.Server
	cancel   context.CancelFunc
	done     chan error
}

// NewService creates a pprof service with the settings.
func NewService(settings Settings, logger httpserver.Logger) *Service {
	settings.setDefaults()
	return &Service{
		settings: settings,
		server:   NewServer(settings.ListeningAddress, logger),
		done:     make(chan error, 1),
	}
}

// Start sets the profile rates and starts the pprof server.
func (s *Service) Start() (err error) {
	runtime.SetBlockProfileRate(s.settings.BlockProfileRate)
	runtime.SetMutexProfileFraction(s.settings.MutexProfileRate)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	ready := make(chan struct{})

	go s.server.Run(ctx, ready, s.done)

	select {
	case <-ready:
		return nil
	case err := <-s.done:
		cancel()
		if err != nil {
			return err
		}
		return ErrServerDoneBeforeReady
	}
}

// Address returns the address the server listens on.
func (s *Service) Address() string {
	return s.server.GetAddress()
}

// Stop stops the pprof server service.
func (s *Service) Stop() (err error) {
	s.cancel()
	return <-s.done
}
