// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricOpts contains naming pieces of the exposed metric
type MetricOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
}

// StartMetrics adds the metrics handler to a http.ServeMux
func StartMetrics(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}

// Counter creates and registers a prometheus.Counter, or returns the one
// already registered under the same name
func Counter(opts MetricOpts) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts(toOpts(opts)))
	return register(c).(prometheus.Counter)
}

// CounterVec is Counter with labels
func CounterVec(opts MetricOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts(toOpts(opts)), labels)
	return register(c).(*prometheus.CounterVec)
}

// Gauge creates and registers a prometheus.Gauge
func Gauge(opts MetricOpts) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts(toOpts(opts)))
	return register(g).(prometheus.Gauge)
}

func toOpts(opts MetricOpts) prometheus.Opts {
	return prometheus.Opts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      opts.Help,
	}
}

func register(c prometheus.Collector) prometheus.Collector {
	err := prometheus.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	panic(err)
}
