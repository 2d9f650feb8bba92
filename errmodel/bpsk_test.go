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

package errmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBpskReceive(t *testing.T) {
	m := NewBpskErrorModel()
	assert.Equal(t, BpskModelName, m.GetName())

	// BER = Q(sqrt(2*snr)) with snr linear.
	snr := 4.0
	expected := BerToPer(QFunction(math.Sqrt(8.0)), 100)
	assert.Equal(t, expected, m.Receive(SnrRatio(snr), 100))
	assert.InDelta(t, expected, m.Receive(SnrDb(10*math.Log10(snr)), 100), 1e-12)

	assert.Equal(t, 0.0, m.Receive(SnrRatio(4), 0))
	assert.Equal(t, 0.0, m.Receive(SnrDb(-20), 0))
}

func TestBpskNonPositiveSnr(t *testing.T) {
	m := NewBpskErrorModel()
	assert.Equal(t, 1.0, m.Receive(SnrRatio(0), 1))
	assert.Equal(t, 1.0, m.Receive(SnrRatio(-3), 1024))
	assert.Equal(t, 1.0, m.Receive(SnrRatio(math.NaN()), 20))
	assert.Equal(t, 1.0, m.Receive(SnrDb(math.Inf(-1)), 20))
	assert.Equal(t, 0.0, m.Receive(SnrDb(math.Inf(1)), 20))
}

func TestBpskMonotonic(t *testing.T) {
	m := NewBpskErrorModel()
	for _, bytes := range []uint32{1, 20, 127, 1024} {
		prev := 1.0
		for snrDb := -10.0; snrDb <= 20.0; snrDb += 0.25 {
			per := m.Receive(SnrDb(snrDb), bytes)
			assert.True(t, per >= 0 && per <= 1)
			assert.LessOrEqual(t, per, prev, "snr=%v bytes=%v", snrDb, bytes)
			prev = per
		}
	}
	for _, snrDb := range []float64{-5, 0, 3, 6, 9, 12} {
		prev := 0.0
		for bytes := uint32(0); bytes <= 2048; bytes += 16 {
			per := m.Receive(SnrDb(snrDb), bytes)
			assert.GreaterOrEqual(t, per, prev, "snr=%v bytes=%v", snrDb, bytes)
			prev = per
		}
	}
}

func TestIeee802154Receive(t *testing.T) {
	m := NewIeee802154ErrorModel()
	assert.Equal(t, Ieee802154ModelName, m.GetName())

	// the binomial sum gives BER=0.5 at a (vanishing) SNR of 0.
	assert.InDelta(t, 0.5, oqpskBitErrorRate(1e-12), 1e-9)

	prev := 1.0
	for snrDb := -20.0; snrDb <= 10.0; snrDb += 0.5 {
		per := m.Receive(SnrDb(snrDb), 127)
		assert.True(t, per >= 0 && per <= 1)
		assert.LessOrEqual(t, per, prev, "snr=%v", snrDb)
		prev = per
	}
	// 802.15.4 frames at 10 dB SNR are practically error-free.
	assert.Less(t, m.Receive(SnrDb(10), 127), 1e-6)
	assert.Equal(t, 1.0, m.Receive(SnrRatio(0), 127))
	assert.Equal(t, 0.0, m.Receive(SnrDb(0), 0))
}

type countingObserver struct {
	receives int
	lastPer  float64
	lastName string
	lookups  map[LookupKind]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{lookups: make(map[LookupKind]int)}
}

func (o *countingObserver) OnReceive(model string, q Quality, bytes uint32, per float64) {
	o.receives++
	o.lastName = model
	o.lastPer = per
}

func (o *countingObserver) OnTableLookup(kind LookupKind) {
	o.lookups[kind]++
}

// traversals counts the lookups that went to the sample table.
func (o *countingObserver) traversals() int {
	n := 0
	for kind, c := range o.lookups {
		if kind != CacheHit {
			n += c
		}
	}
	return n
}

func TestAnalyticObserver(t *testing.T) {
	obs := newCountingObserver()
	m := NewBpskErrorModel()
	m.SetObserver(obs)
	per := m.Receive(SnrDb(3), 50)
	assert.Equal(t, 1, obs.receives)
	assert.Equal(t, BpskModelName, obs.lastName)
	assert.Equal(t, per, obs.lastPer)
	assert.Equal(t, 0, len(obs.lookups))

	m.SetObserver(nil)
	m.Receive(SnrDb(3), 50)
	assert.Equal(t, 1, obs.receives)
}
