// Copyright (c) 2022-2024, The OTNS Authors.
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

package radiomodel

import (
	"math"

	"github.com/simplewireless/perlink/errmodel"
	"github.com/simplewireless/perlink/logger"
	. "github.com/simplewireless/perlink/types"
)

// Endpoint is one end of a radio link: a positioned transmitter/receiver that owns its error model.
type Endpoint struct {
	Id EndpointId

	// TxPower is the Tx power (dBm) used by the endpoint.
	TxPower DbValue

	// RxSensitivity contains the Rx sensitivity in dBm of the endpoint.
	RxSensitivity DbValue

	// RadioRange limits reception to this distance (grid units) when the params are disc-limited. 0 means unlimited.
	RadioRange float64

	// Endpoint position in grid units.
	X, Y, Z float64

	// ErrorModel is used when this endpoint receives a frame. It is not shared with other endpoints.
	ErrorModel errmodel.ErrorModel

	stats EndpointStats
}

type EndpointConfig struct {
	X, Y, Z       float64
	RadioRange    float64
	TxPower       DbValue
	RxSensitivity DbValue
}

type EndpointStats struct {
	NumFramesTx        int
	NumBytesTx         int
	NumFramesRx        int
	NumFramesCorrupted int
	NumFramesLost      int
}

// DefaultEndpointConfig returns an endpoint configuration at the origin with default radio parameters.
func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		TxPower:       defaultTxPowerDbm,
		RxSensitivity: defaultRxSensitivity,
	}
}

func NewEndpoint(id EndpointId, cfg *EndpointConfig, model errmodel.ErrorModel) *Endpoint {
	logger.AssertTrue(id > InvalidEndpointId && id <= MaxEndpointId)
	logger.AssertNotNil(model)
	return &Endpoint{
		Id:            id,
		TxPower:       cfg.TxPower,
		RxSensitivity: cfg.RxSensitivity,
		RadioRange:    cfg.RadioRange,
		X:             cfg.X,
		Y:             cfg.Y,
		Z:             cfg.Z,
		ErrorModel:    model,
	}
}

func (ep *Endpoint) SetTxPower(txPower DbValue) {
	ep.TxPower = txPower
}

func (ep *Endpoint) SetRxSensitivity(rxSens DbValue) {
	ep.RxSensitivity = rxSens
}

func (ep *Endpoint) SetPos(x, y, z float64) {
	ep.X, ep.Y, ep.Z = x, y, z
}

// GetDistanceTo gets the distance to another Endpoint (in grid units).
func (ep *Endpoint) GetDistanceTo(other *Endpoint) (dist float64) {
	dx := other.X - ep.X
	dy := other.Y - ep.Y
	dz := other.Z - ep.Z
	dist = math.Sqrt(dx*dx + dy*dy + dz*dz)
	return
}

// Stats returns a copy of the endpoint's frame counters.
func (ep *Endpoint) Stats() EndpointStats {
	return ep.stats
}
