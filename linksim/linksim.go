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

// Package linksim evaluates the performance of a single radio link: a client sends packets to a server at a
// given distance, and the server echoes every packet it receives back to the client.
package linksim

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/simplewireless/perlink/calibration"
	"github.com/simplewireless/perlink/config"
	"github.com/simplewireless/perlink/errmodel"
	"github.com/simplewireless/perlink/logger"
	"github.com/simplewireless/perlink/metrics"
	"github.com/simplewireless/perlink/radiomodel"
	. "github.com/simplewireless/perlink/types"
)

const (
	ClientId EndpointId = 1
	ServerId EndpointId = 2
)

// Config describes a link run.
type Config struct {
	Params        *radiomodel.RadioModelParams
	Model         errmodel.ErrorModel // each endpoint receives with its own copy
	Distance      float64
	TxPower       DbValue
	RxSensitivity DbValue
	Interference  DbValue // undefined (NaN) for none
	Count         int
	Size          uint32
	Interval      time.Duration
	Realtime      bool // if true, wait Interval between packets

	Observer  errmodel.Observer
	Collector *metrics.Collector
}

// FromRunConfig resolves the run configuration into a link run Config.
func FromRunConfig(rc *config.RunConfig) (*Config, error) {
	params, err := radiomodel.NewRadioModelParams(rc.Radio.Model)
	if err != nil {
		return nil, err
	}
	if rc.Radio.NoiseFloor != nil {
		params.NoiseFloorDbm = *rc.Radio.NoiseFloor
	}
	if rc.Radio.ShadowFading != nil {
		params.ShadowFadingSigmaDb = *rc.Radio.ShadowFading
	}

	var model errmodel.ErrorModel
	if rc.ErrorModel.Calibration != "" {
		if model, err = calibration.LoadModel(rc.ErrorModel.Calibration); err != nil {
			return nil, err
		}
	} else {
		if model, err = errmodel.NewErrorModel(rc.ErrorModel.Name); err != nil {
			return nil, err
		}
		if tm, ok := model.(*errmodel.TableErrorModel); ok {
			if err = tm.Validate(); err != nil {
				return nil, errors.Wrap(err, "table error model requires a calibration file")
			}
		}
	}

	cfg := &Config{
		Params:        params,
		Model:         model,
		Distance:      rc.Link.Distance,
		TxPower:       rc.Radio.TxPower,
		RxSensitivity: rc.Radio.RxSensitivity,
		Interference:  UndefinedDbValue,
		Count:         rc.Link.Count,
		Size:          rc.Link.Size,
		Interval:      rc.Link.Interval,
		Realtime:      rc.Link.Realtime,
	}
	if rc.Radio.Interference != nil {
		cfg.Interference = *rc.Radio.Interference
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch {
	case cfg.Params == nil:
		return errors.New("link run without radio parameters")
	case cfg.Model == nil:
		return errors.New("link run without error model")
	case cfg.Count <= 0:
		return errors.Errorf("invalid packet count %d", cfg.Count)
	case cfg.Distance < 0:
		return errors.Errorf("invalid distance %v", cfg.Distance)
	}
	return nil
}

// endpointModel returns an error model of the same kind as the configured one, for exclusive use by an endpoint.
func (cfg *Config) endpointModel() (errmodel.ErrorModel, error) {
	var m errmodel.ErrorModel
	if tm, ok := cfg.Model.(*errmodel.TableErrorModel); ok {
		m = tm.Clone()
	} else {
		var err error
		if m, err = errmodel.NewErrorModel(cfg.Model.GetName()); err != nil {
			return nil, err
		}
	}
	if cfg.Observer != nil {
		if om, ok := m.(errmodel.Observable); ok {
			om.SetObserver(cfg.Observer)
		}
	}
	return m, nil
}

func (cfg *Config) newChannel() (*radiomodel.Channel, error) {
	ch := radiomodel.NewChannel(cfg.Params)
	ch.SetInterferencePower(cfg.Interference)

	for _, ep := range []struct {
		id EndpointId
		x  float64
	}{{ClientId, 0}, {ServerId, cfg.Distance / cfg.Params.MeterPerUnit}} {
		model, err := cfg.endpointModel()
		if err != nil {
			return nil, err
		}
		epCfg := radiomodel.EndpointConfig{
			X:             ep.x,
			TxPower:       cfg.TxPower,
			RxSensitivity: cfg.RxSensitivity,
		}
		if err = ch.AddEndpoint(radiomodel.NewEndpoint(ep.id, &epCfg, model)); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

// Run sends cfg.Count packets from the client to the server, which echoes each received packet. It stops early
// when ctx is done, returning the KPIs so far with a cancelled status along with the ctx error.
func Run(ctx context.Context, cfg *Config) (*Kpi, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ch, err := cfg.newChannel()
	if err != nil {
		return nil, err
	}

	kpi := &Kpi{
		Status:     StatusOk,
		Radio:      cfg.Params.Name,
		Model:      cfg.Model.GetName(),
		Distance:   cfg.Distance,
		PacketSize: cfg.Size,
	}
	logger.Debugf("link run: %s/%s distance=%v count=%d size=%d", kpi.Radio, kpi.Model, cfg.Distance,
		cfg.Count, cfg.Size)

	start := time.Now()
	defer func() {
		kpi.Time.WallSec = time.Since(start).Seconds()
		kpi.Time.PeriodSec = (time.Duration(kpi.Uplink.Sent) * cfg.Interval).Seconds()
		kpi.calculate()
	}()

	var ticker *time.Ticker
	if cfg.Realtime && cfg.Interval > 0 {
		ticker = time.NewTicker(cfg.Interval)
		defer ticker.Stop()
	}

	for i := 0; i < cfg.Count; i++ {
		if ticker != nil && i > 0 {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
		if ctx.Err() != nil {
			kpi.Status = StatusCancelled
			return kpi, ctx.Err()
		}

		if !cfg.transmit(ch, ClientId, ServerId, &kpi.Uplink) {
			continue
		}
		if cfg.transmit(ch, ServerId, ClientId, &kpi.Downlink) {
			kpi.Echoed++
		}
	}
	return kpi, nil
}

// transmit sends one packet and records it in the KPIs of its direction. It returns true if the packet arrived.
func (cfg *Config) transmit(ch *radiomodel.Channel, src, dst EndpointId, d *KpiDirection) bool {
	res, err := ch.Transmit(src, dst, cfg.Size)
	logger.PanicIfError(err)

	d.Sent++
	d.sumPer += res.Per
	d.SnrDb = res.SnrDb
	d.RxPowerDbm = res.RxPowerDbm
	switch {
	case !res.Detected:
		d.Lost++
	case res.Corrupted:
		d.Corrupted++
	default:
		d.Received++
	}
	cfg.Collector.RecordFrame(res.Detected, res.Corrupted)
	return res.Detected && !res.Corrupted
}

// Sweep runs the link at each of the given distances. It stops at the first error.
func Sweep(ctx context.Context, cfg *Config, distances []float64) ([]*Kpi, error) {
	kpis := make([]*Kpi, 0, len(distances))
	for _, dist := range distances {
		runCfg := *cfg
		runCfg.Distance = dist
		kpi, err := Run(ctx, &runCfg)
		if kpi != nil {
			kpis = append(kpis, kpi)
		}
		if err != nil {
			return kpis, err
		}
	}
	return kpis, nil
}
