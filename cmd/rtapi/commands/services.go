// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package commands

import (
	"errors"

	"github.com/ChainSafe/rtapi/config"
	"github.com/ChainSafe/rtapi/internal/metrics"
	"github.com/ChainSafe/rtapi/internal/pprof"
)

// startServices starts the metrics and profiling servers enabled in the
// configuration and returns a function stopping them.
func startServices(cfg *config.Config) (stop func() error, err error) {
	var stops []func() error
	stop = func() error {
		var errs []error
		for i := len(stops) - 1; i >= 0; i-- {
			errs = append(errs, stops[i]())
		}
		return errors.Join(errs...)
	}

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Address)
		err = server.Start()
		if err != nil {
			return nil, err
		}
		stops = append(stops, server.Stop)
	}

	if cfg.Pprof.Enabled {
		service := pprof.NewService(pprof.Settings{
			ListeningAddress: cfg.Pprof.Address,
			BlockProfileRate: cfg.Pprof.BlockProfileRate,
			MutexProfileRate: cfg.Pprof.MutexProfileRate,
		}, logger)
		err = service.Start()
		if err != nil {
			return nil, errors.Join(err, stop())
		}
		stops = append(stops, service.Stop)
		logger.Infof("serving profiles at http://%s/debug/pprof/", service.Address())
	}

	return stop, nil
}
