// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package metrics exports error-model activity and link results as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simplewireless/perlink/errmodel"
)

// Frame results, as used for the "result" label.
const (
	FrameOk        = "ok"
	FrameCorrupted = "corrupted"
	FrameLost      = "lost"
)

// Collector bundles the Prometheus metrics of perlink. It is an errmodel.Observer, so it can be attached
// to any error model with SetObserver.
type Collector struct {
	gatherer prometheus.Gatherer

	Receives         *prometheus.CounterVec
	ErrorProbability *prometheus.HistogramVec
	TableLookups     *prometheus.CounterVec
	Frames           *prometheus.CounterVec
}

// NewCollector registers the metrics against the provided registerer, defaulting to the global Prometheus
// registry when nil. Metrics that are already registered are reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	receives, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "perlink_receive_total",
		Help: "Total number of error-model evaluations, labeled by model.",
	}, []string{"model"}), "perlink_receive_total")
	if err != nil {
		return nil, err
	}

	probability, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "perlink_error_probability",
		Help:    "Packet error probability returned by the error model, labeled by model.",
		Buckets: []float64{1e-6, 1e-5, 1e-4, 1e-3, 0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99, 1},
	}, []string{"model"}), "perlink_error_probability")
	if err != nil {
		return nil, err
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "perlink_table_lookups_total",
		Help: "Total number of table error-model lookups, labeled by how the lookup was resolved.",
	}, []string{"kind"}), "perlink_table_lookups_total")
	if err != nil {
		return nil, err
	}

	frames, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "perlink_frames_total",
		Help: "Total number of frames sent over the channel, labeled by result.",
	}, []string{"result"}), "perlink_frames_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Receives:         receives,
		ErrorProbability: probability,
		TableLookups:     lookups,
		Frames:           frames,
	}, nil
}

func (c *Collector) OnReceive(model string, q errmodel.Quality, bytes uint32, per float64) {
	if c == nil {
		return
	}
	c.Receives.WithLabelValues(model).Inc()
	c.ErrorProbability.WithLabelValues(model).Observe(per)
}

func (c *Collector) OnTableLookup(kind errmodel.LookupKind) {
	if c == nil {
		return
	}
	c.TableLookups.WithLabelValues(kind.String()).Inc()
}

// RecordFrame counts a frame sent over the channel.
func (c *Collector) RecordFrame(detected bool, corrupted bool) {
	if c == nil {
		return
	}
	result := FrameOk
	if !detected {
		result = FrameLost
	} else if corrupted {
		result = FrameCorrupted
	}
	c.Frames.WithLabelValues(result).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, errors.WithStack(err)
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, errors.WithStack(err)
	}
	return vec, nil
}
