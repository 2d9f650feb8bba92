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

package radiomodel

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplewireless/perlink/errmodel"
	"github.com/simplewireless/perlink/prng"
	. "github.com/simplewireless/perlink/types"
)

func newTestParams(t *testing.T, name string) *RadioModelParams {
	params, err := NewRadioModelParams(name)
	require.Nil(t, err)
	return params
}

func newTestEndpoint(t *testing.T, ch *Channel, id EndpointId, x float64, model errmodel.ErrorModel) *Endpoint {
	cfg := DefaultEndpointConfig()
	cfg.X = x
	ep := NewEndpoint(id, &cfg, model)
	require.Nil(t, ch.AddEndpoint(ep))
	return ep
}

func constantPerTable(t *testing.T, per float64) *errmodel.TableErrorModel {
	m := errmodel.NewTableErrorModel()
	require.Nil(t, m.AddSample(errmodel.MinTableSnrDb, per))
	require.Nil(t, m.AddSample(errmodel.MaxTableSnrDb, per))
	return m
}

func TestParamsPresets(t *testing.T) {
	for _, name := range []string{ParamsItu, Params3gpp, ParamsOutdoor, ParamsFreeSpace, "ITU"} {
		params := newTestParams(t, name)
		assert.True(t, IsDefined(params.ExponentDb))
		assert.True(t, IsDefined(params.FixedLossDb))
		assert.Equal(t, defaultNoiseFloorDbm, params.NoiseFloorDbm)
	}

	_, err := NewRadioModelParams("moon")
	assert.True(t, errors.Is(err, ErrUnknownParams))
}

func TestPathlossFreeSpace(t *testing.T) {
	params := newTestParams(t, ParamsFreeSpace)

	assert.Equal(t, 0.0, computePathloss(0.0, params))
	assert.Equal(t, 0.0, computePathloss(0.005, params))
	assert.InDelta(t, 40.05, computePathloss(1.0, params), 1e-9)
	assert.InDelta(t, 60.05, computePathloss(10.0, params), 1e-9)
	assert.InDelta(t, -60.05, computeRxPower(10.0, 0.0, params), 1e-9)

	// scaled grid units
	params.MeterPerUnit = 0.1
	assert.InDelta(t, 40.05, computePathloss(10.0, params), 1e-9)
}

func TestPathloss3gppUsesWorstOfLosAndNlos(t *testing.T) {
	params := newTestParams(t, Params3gpp)
	for _, d := range []float64{1, 5, 20, 100} {
		los := params.ExponentDb*math.Log10(d) + params.FixedLossDb
		nlos := params.NlosExponentDb*math.Log10(d) + params.NlosFixedLossDb
		assert.InDelta(t, math.Max(los, nlos), computePathloss(d, params), 1e-9)
	}
}

func TestAddSignalPowers(t *testing.T) {
	assert.InDelta(t, -95+10*math.Log10(2), addSignalPowersDbm(-95, -95), 1e-9)
	assert.Equal(t, -95.0, addSignalPowersDbm(-95, UndefinedDbValue))
	assert.Equal(t, -95.0, addSignalPowersDbm(UndefinedDbValue, -95))
	assert.InDelta(t, -50.0, addSignalPowersDbm(-50, -95), 0.001)
	assert.InDelta(t, -90.23, addSignalPowersDbm(-95, -95, -95), 0.01)
	assert.False(t, IsDefined(addSignalPowersDbm(UndefinedDbValue)))
	assert.InDelta(t, 1.0, dbmToMilliwatt(0), 1e-12)
	assert.False(t, IsDefined(milliwattToDbm(0)))
}

func TestClipRssi(t *testing.T) {
	assert.Equal(t, RssiMax, clipRssi(200))
	assert.Equal(t, RssiMinusInfinity, clipRssi(-200))
	assert.Equal(t, -60.0, clipRssi(-60.3))
}

func TestShadowFadingDeterministicAndSymmetric(t *testing.T) {
	params := newTestParams(t, Params3gpp)
	fm := newFadingModel()
	a := &Endpoint{Id: 1, X: 0, Y: 0}
	b := &Endpoint{Id: 2, X: 40, Y: 15}

	ab := fm.computeFading(a, b, params)
	assert.Equal(t, ab, fm.computeFading(b, a, params))
	assert.Equal(t, ab, fm.computeFading(a, b, params))

	fm.clearCaches()
	assert.Equal(t, ab, fm.computeFading(a, b, params))

	params.ShadowFadingSigmaDb = UndefinedDbValue
	assert.Equal(t, 0.0, fm.computeFading(a, b, params))
}

func TestChannelFarLinkAlwaysLost(t *testing.T) {
	ch := NewChannel(newTestParams(t, ParamsFreeSpace))
	newTestEndpoint(t, ch, 1, 0, errmodel.NewBpskErrorModel())
	newTestEndpoint(t, ch, 2, 1e6, errmodel.NewBpskErrorModel())

	for i := 0; i < 100; i++ {
		res, err := ch.Transmit(1, 2, 100)
		require.Nil(t, err)
		assert.False(t, res.Detected)
		assert.True(t, res.Corrupted)
		assert.Equal(t, 1.0, res.Per)
	}
	assert.Equal(t, 100, ch.GetEndpoint(2).Stats().NumFramesLost)
	assert.Equal(t, 100, ch.GetStats().NumFramesLost)
}

func TestChannelCloseLinkNeverCorrupts(t *testing.T) {
	ch := NewChannel(newTestParams(t, ParamsFreeSpace))
	newTestEndpoint(t, ch, 1, 0, errmodel.NewBpskErrorModel())
	newTestEndpoint(t, ch, 2, 1, errmodel.NewIeee802154ErrorModel())

	for i := 0; i < 100; i++ {
		res, err := ch.Transmit(1, 2, 127)
		require.Nil(t, err)
		assert.True(t, res.Detected)
		assert.False(t, res.Corrupted)
		assert.InDelta(t, -40.05, res.RxPowerDbm, 1e-9)
		assert.InDelta(t, 54.95, res.SnrDb, 1e-9)
		assert.Equal(t, -40.0, res.Rssi)
	}
	stats := ch.GetEndpoint(1).Stats()
	assert.Equal(t, 100, stats.NumFramesTx)
	assert.Equal(t, 12700, stats.NumBytesTx)
	assert.Equal(t, 100, ch.GetEndpoint(2).Stats().NumFramesRx)
}

func TestChannelCorruptionFollowsPer(t *testing.T) {
	prng.Init(1234)
	ch := NewChannel(newTestParams(t, ParamsFreeSpace))
	newTestEndpoint(t, ch, 1, 0, constantPerTable(t, 0.5))
	newTestEndpoint(t, ch, 2, 5, constantPerTable(t, 0.5))

	const n = 10000
	corrupted := 0
	for i := 0; i < n; i++ {
		res, err := ch.Transmit(1, 2, 50)
		require.Nil(t, err)
		assert.Equal(t, 0.5, res.Per)
		if res.Corrupted {
			corrupted++
		}
	}
	assert.InDelta(t, 0.5, float64(corrupted)/n, 0.03)
	assert.Equal(t, corrupted, ch.GetStats().NumFramesCorrupted)
}

func TestChannelInterference(t *testing.T) {
	ch := NewChannel(newTestParams(t, ParamsFreeSpace))
	newTestEndpoint(t, ch, 1, 0, errmodel.NewBpskErrorModel())
	newTestEndpoint(t, ch, 2, 10, errmodel.NewBpskErrorModel())

	res, err := ch.Transmit(1, 2, 10)
	require.Nil(t, err)
	assert.Equal(t, defaultNoiseFloorDbm, res.NoiseDbm)

	ch.SetInterferencePower(-95)
	res, err = ch.Transmit(1, 2, 10)
	require.Nil(t, err)
	assert.InDelta(t, -91.99, res.NoiseDbm, 0.01)
	assert.InDelta(t, res.RxPowerDbm-res.NoiseDbm, res.SnrDb, 1e-9)

	ch.SetInterferencePower(UndefinedDbValue)
	assert.Equal(t, defaultNoiseFloorDbm, ch.NoisePowerDbm())
}

func TestChannelDiscLimit(t *testing.T) {
	params := newTestParams(t, ParamsFreeSpace)
	params.IsDiscLimit = true
	ch := NewChannel(params)
	src := newTestEndpoint(t, ch, 1, 0, errmodel.NewBpskErrorModel())
	newTestEndpoint(t, ch, 2, 20, errmodel.NewBpskErrorModel())

	src.RadioRange = 10
	res, err := ch.Transmit(1, 2, 10)
	require.Nil(t, err)
	assert.False(t, res.Detected)

	src.RadioRange = 30
	res, err = ch.Transmit(1, 2, 10)
	require.Nil(t, err)
	assert.True(t, res.Detected)
}

func TestChannelEndpoints(t *testing.T) {
	ch := NewChannel(newTestParams(t, ParamsItu))
	newTestEndpoint(t, ch, 3, 0, errmodel.NewBpskErrorModel())
	newTestEndpoint(t, ch, 1, 0, errmodel.NewBpskErrorModel())

	cfg := DefaultEndpointConfig()
	err := ch.AddEndpoint(NewEndpoint(1, &cfg, errmodel.NewBpskErrorModel()))
	assert.True(t, errors.Is(err, ErrDuplicateEndpoint))
	assert.Equal(t, []EndpointId{1, 3}, ch.GetEndpoints())

	_, err = ch.Transmit(1, 2, 10)
	assert.True(t, errors.Is(err, ErrUnknownEndpoint))

	ch.DeleteEndpoint(3)
	assert.Nil(t, ch.GetEndpoint(3))
	_, err = ch.Transmit(3, 1, 10)
	assert.True(t, errors.Is(err, ErrUnknownEndpoint))
}
