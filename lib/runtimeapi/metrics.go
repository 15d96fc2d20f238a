// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtimeapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rtapi_runtime",
		Name:      "calls_total",
		Help:      "total number of runtime calls by function",
	}, []string{"function"})
	failuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rtapi_runtime",
		Name:      "call_failures_total",
		Help:      "total number of failed runtime calls by function and kind",
	}, []string{"function", "kind"})
	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rtapi_runtime",
		Name:      "call_duration_seconds",
		Help:      "duration of runtime calls by function",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"function"})
	commitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rtapi_runtime",
		Name:      "commits_total",
		Help:      "total number of logical transactions committed",
	})
	discardsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rtapi_runtime",
		Name:      "discards_total",
		Help:      "total number of logical transactions discarded",
	})
	versionCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rtapi_runtime",
		Name:      "version_cache_misses_total",
		Help:      "total number of runtime version lookups that called into the runtime",
	})
)
