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

// Package radiomodel models the wireless channel between endpoints: path loss, shadow fading, noise and
// interference determine the SNR at the receiver, whose error model gives the packet error rate. The channel
// then draws the corruption decision from its own random source.
package radiomodel

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/simplewireless/perlink/errmodel"
	"github.com/simplewireless/perlink/logger"
	"github.com/simplewireless/perlink/prng"
	. "github.com/simplewireless/perlink/types"
)

var (
	ErrUnknownEndpoint   = errors.New("unknown endpoint")
	ErrDuplicateEndpoint = errors.New("endpoint already exists")
)

// FrameResult is the outcome of a single frame transmission over the channel.
type FrameResult struct {
	Src        EndpointId
	Dst        EndpointId
	Bytes      uint32
	RxPowerDbm DbValue
	Rssi       DbValue
	NoiseDbm   DbValue
	SnrDb      DbValue
	Per        float64
	Detected   bool
	Corrupted  bool
}

func (r FrameResult) String() string {
	return fmt.Sprintf("%d->%d len=%d rx=%.1fdBm noise=%.1fdBm snr=%.2fdB per=%.4g detected=%t corrupted=%t",
		r.Src, r.Dst, r.Bytes, r.RxPowerDbm, r.NoiseDbm, r.SnrDb, r.Per, r.Detected, r.Corrupted)
}

type ChannelStats struct {
	NumFrames          int
	NumFramesCorrupted int
	NumFramesLost      int
}

// Channel connects endpoints. It is safe for concurrent use.
type Channel struct {
	params            *RadioModelParams
	fading            *fadingModel
	endpoints         map[EndpointId]*Endpoint
	rnd               *rand.Rand
	interferencePower DbValue
	stats             ChannelStats
	lock              sync.Mutex
}

func NewChannel(params *RadioModelParams) *Channel {
	logger.AssertNotNil(params)
	return &Channel{
		params:            params,
		fading:            newFadingModel(),
		endpoints:         make(map[EndpointId]*Endpoint),
		rnd:               prng.NewSource(prng.NewChannelRandomSeed()),
		interferencePower: UndefinedDbValue,
	}
}

func (ch *Channel) GetParameters() *RadioModelParams {
	return ch.params
}

func (ch *Channel) AddEndpoint(ep *Endpoint) error {
	ch.lock.Lock()
	defer ch.lock.Unlock()

	if _, ok := ch.endpoints[ep.Id]; ok {
		return errors.Wrapf(ErrDuplicateEndpoint, "endpoint %d", ep.Id)
	}
	ch.endpoints[ep.Id] = ep
	return nil
}

func (ch *Channel) DeleteEndpoint(id EndpointId) {
	ch.lock.Lock()
	defer ch.lock.Unlock()
	delete(ch.endpoints, id)
}

func (ch *Channel) GetEndpoint(id EndpointId) *Endpoint {
	ch.lock.Lock()
	defer ch.lock.Unlock()
	return ch.endpoints[id]
}

// GetEndpoints returns the ids of all endpoints, in ascending order.
func (ch *Channel) GetEndpoints() []EndpointId {
	ch.lock.Lock()
	defer ch.lock.Unlock()

	ids := make([]EndpointId, 0, len(ch.endpoints))
	for id := range ch.endpoints {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetInterferencePower sets a constant interference power (dBm) seen by all receivers. It adds to the noise floor
// in the linear domain. An undefined (NaN) value disables interference.
func (ch *Channel) SetInterferencePower(powerDbm DbValue) {
	ch.lock.Lock()
	defer ch.lock.Unlock()
	ch.interferencePower = powerDbm
}

// NoisePowerDbm returns the total noise plus interference power (dBm) at a receiver.
func (ch *Channel) NoisePowerDbm() DbValue {
	ch.lock.Lock()
	defer ch.lock.Unlock()
	return ch.noisePowerDbm()
}

func (ch *Channel) noisePowerDbm() DbValue {
	return addSignalPowersDbm(ch.params.NoiseFloorDbm, ch.interferencePower)
}

// ComputeRxPower returns the power (dBm) at which dst receives a frame from src, including shadow fading.
func (ch *Channel) ComputeRxPower(src *Endpoint, dst *Endpoint) DbValue {
	ch.lock.Lock()
	defer ch.lock.Unlock()
	return ch.computeRxPower(src, dst)
}

func (ch *Channel) computeRxPower(src *Endpoint, dst *Endpoint) DbValue {
	dist := src.GetDistanceTo(dst)
	return computeRxPower(dist, src.TxPower, ch.params) - ch.fading.computeFading(src, dst, ch.params)
}

// Transmit sends a frame of the given size from src to dst and decides whether it arrives corrupted.
// A frame below the receiver's sensitivity, or beyond the sender's radio range for disc-limited params, is not
// detected: its PER is 1.
func (ch *Channel) Transmit(srcId EndpointId, dstId EndpointId, bytes uint32) (FrameResult, error) {
	ch.lock.Lock()
	defer ch.lock.Unlock()

	src, ok := ch.endpoints[srcId]
	if !ok {
		return FrameResult{}, errors.Wrapf(ErrUnknownEndpoint, "src %d", srcId)
	}
	dst, ok := ch.endpoints[dstId]
	if !ok {
		return FrameResult{}, errors.Wrapf(ErrUnknownEndpoint, "dst %d", dstId)
	}

	res := FrameResult{
		Src:        srcId,
		Dst:        dstId,
		Bytes:      bytes,
		RxPowerDbm: ch.computeRxPower(src, dst),
		NoiseDbm:   ch.noisePowerDbm(),
	}
	res.Rssi = clipRssi(res.RxPowerDbm)
	res.SnrDb = res.RxPowerDbm - res.NoiseDbm
	res.Detected = res.RxPowerDbm >= dst.RxSensitivity && ch.inRange(src, dst)

	src.stats.NumFramesTx++
	src.stats.NumBytesTx += int(bytes)
	ch.stats.NumFrames++

	if !res.Detected {
		res.Per = 1.0
		res.Corrupted = true
		dst.stats.NumFramesLost++
		ch.stats.NumFramesLost++
		logger.Tracef("frame lost: %v", res)
		return res, nil
	}

	res.Per = errmodel.ReceivePowers(dst.ErrorModel, res.RxPowerDbm, res.NoiseDbm, bytes)
	res.Corrupted = res.Per > 0.0 && ch.rnd.Float64() < res.Per
	dst.stats.NumFramesRx++
	if res.Corrupted {
		dst.stats.NumFramesCorrupted++
		ch.stats.NumFramesCorrupted++
		logger.Tracef("frame corrupted: %v", res)
	}
	return res, nil
}

func (ch *Channel) inRange(src *Endpoint, dst *Endpoint) bool {
	if !ch.params.IsDiscLimit || src.RadioRange <= 0 {
		return true
	}
	return src.GetDistanceTo(dst) <= src.RadioRange
}

func (ch *Channel) GetStats() ChannelStats {
	ch.lock.Lock()
	defer ch.lock.Unlock()
	return ch.stats
}
