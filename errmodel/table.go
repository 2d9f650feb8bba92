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
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	. "github.com/simplewireless/perlink/types"
)

// Accepted SNR range (dB) of table samples. Values outside are taken as caller errors.
const (
	MinTableSnrDb DbValue = -100.0
	MaxTableSnrDb DbValue = 100.0
)

// Sample is a single calibration point of a TableErrorModel.
type Sample struct {
	Snr DbValue
	Per float64
}

// TableErrorModel is an empirical error model that interpolates a table of (SNR in dB, PER) samples.
//
// Lookup rules, in order: the last query's result is reused if the SNR is identical; a sample with an
// identical SNR returns its PER; below the lowest sample PER=1; above the highest sample PER=0; otherwise
// PER is linearly interpolated between the two neighbouring samples. SNR keys are compared for exact
// floating-point equality. An empty table returns PER=1.
//
// The frame length is not used: table PER values are taken to be valid for the frame size they were
// measured with.
//
// Receive is safe for concurrent use; callers that want independent caches use Clone.
type TableErrorModel struct {
	observed
	Name string

	lock     sync.Mutex
	samples  []Sample // sorted by ascending Snr, unique Snr
	cacheSnr DbValue
	cachePer float64
}

// noCacheSnr is never equal to any SNR, including itself.
var noCacheSnr = math.NaN()

func NewTableErrorModel() *TableErrorModel {
	m := &TableErrorModel{
		Name:     TableModelName,
		cacheSnr: noCacheSnr,
	}
	m.SetObserver(nil)
	return m
}

func (m *TableErrorModel) GetName() string {
	return m.Name
}

// AddSample inserts a calibration point, replacing any existing sample with the same SNR.
// On error the table is unchanged.
func (m *TableErrorModel) AddSample(snr DbValue, per float64) error {
	if math.IsNaN(per) || per < 0.0 || per > 1.0 {
		return errors.Wrapf(ErrInvalidPer, "per=%v (snr=%v)", per, snr)
	}
	if math.IsNaN(snr) || snr < MinTableSnrDb || snr > MaxTableSnrDb {
		return errors.Wrapf(ErrInvalidSnr, "snr=%v not in [%v,%v]", snr, MinTableSnrDb, MaxTableSnrDb)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	idx, found := m.search(snr)
	if found {
		m.samples[idx].Per = per
	} else {
		m.samples = slices.Insert(m.samples, idx, Sample{Snr: snr, Per: per})
	}
	// the cached result may no longer hold.
	m.cacheSnr = noCacheSnr
	return nil
}

// Samples returns a copy of the samples, in ascending SNR order.
func (m *TableErrorModel) Samples() []Sample {
	m.lock.Lock()
	defer m.lock.Unlock()
	return slices.Clone(m.samples)
}

func (m *TableErrorModel) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.samples)
}

// Validate checks that the table can be used, i.e. it holds at least one sample.
func (m *TableErrorModel) Validate() error {
	if m.Len() == 0 {
		return errors.Wrapf(ErrEmptyTable, "model %s", m.GetName())
	}
	return nil
}

// Clone returns a copy with the same samples, name and observer, and its own empty cache.
func (m *TableErrorModel) Clone() *TableErrorModel {
	c := NewTableErrorModel()
	c.Name = m.Name
	c.samples = m.Samples()
	c.SetObserver(m.observer)
	return c
}

func (m *TableErrorModel) Receive(q Quality, bytes uint32) float64 {
	snr := q.Db()

	m.lock.Lock()
	per, kind := m.lookup(snr)
	m.lock.Unlock()

	m.observer.OnTableLookup(kind)
	m.observer.OnReceive(m.Name, q, bytes, per)
	return per
}

// lookup must be called with the lock held.
func (m *TableErrorModel) lookup(snr DbValue) (float64, LookupKind) {
	if snr == m.cacheSnr {
		return m.cachePer, CacheHit
	}
	if math.IsNaN(snr) {
		return 1.0, InvalidQuery
	}
	n := len(m.samples)
	if n == 0 {
		return 1.0, EmptyTable
	}

	var per float64
	var kind LookupKind
	idx, found := m.search(snr)
	switch {
	case found:
		per, kind = m.samples[idx].Per, ExactMatch
	case idx == 0:
		per, kind = 1.0, BelowRange
	case idx == n:
		per, kind = 0.0, AboveRange
	default:
		lo, hi := m.samples[idx-1], m.samples[idx]
		per = lo.Per + (snr-lo.Snr)/(hi.Snr-lo.Snr)*(hi.Per-lo.Per)
		per, kind = clampProbability(per), Interpolated
	}

	m.cacheSnr, m.cachePer = snr, per
	return per, kind
}

// search finds the index of snr in the samples, or the index where it would be inserted.
func (m *TableErrorModel) search(snr DbValue) (int, bool) {
	return slices.BinarySearchFunc(m.samples, snr, func(s Sample, target DbValue) int {
		if s.Snr < target {
			return -1
		}
		if s.Snr > target {
			return 1
		}
		return 0
	})
}
