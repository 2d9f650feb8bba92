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
	"gonum.org/v1/gonum/stat/distuv"
)

func TestQFunctionBoundary(t *testing.T) {
	assert.Equal(t, 0.5, QFunction(0))
	assert.Equal(t, 0.0, QFunction(math.Inf(1)))
	assert.Panics(t, func() { QFunction(-0.1) })
	assert.Panics(t, func() { QFunction(math.NaN()) })
}

func TestQFunctionMonotonicAndRange(t *testing.T) {
	prev := QFunction(0)
	for x := 0.001; x < 10.0; x += 0.001 {
		q := QFunction(x)
		assert.True(t, q > 0 && q <= 0.5, "Q(%v)=%v", x, q)
		assert.LessOrEqual(t, q, prev, "Q not decreasing at x=%v", x)
		prev = q
	}
}

func TestQFunctionAccuracy(t *testing.T) {
	for x := 0.05; x <= 6.0; x += 0.05 {
		exact := distuv.UnitNormal.Survival(x)
		approx := QFunction(x)
		assert.InEpsilon(t, exact, approx, 0.15, "x=%v", x)
	}
	// near the origin the fit is within a few percent.
	assert.InEpsilon(t, distuv.UnitNormal.Survival(0.1), QFunction(0.1), 0.02)
	assert.InEpsilon(t, distuv.UnitNormal.Survival(1.0), QFunction(1.0), 0.02)
}

func TestBerToPerEdges(t *testing.T) {
	assert.Equal(t, 0.0, BerToPer(0.5, 0))
	assert.Equal(t, 0.0, BerToPer(1.0, 0))
	assert.Equal(t, 0.0, BerToPer(0, 1500))
	assert.Equal(t, 1.0, BerToPer(1.0, 1))
	assert.InDelta(t, 1-math.Pow(0.5, 8), BerToPer(0.5, 1), 1e-15)
	assert.InDelta(t, 1-math.Pow(0.99, 800), BerToPer(0.01, 100), 1e-12)
}

func TestBerToPerStableForSmallBer(t *testing.T) {
	// 1-(1-1e-12)^12000 suffers from cancellation when computed naively.
	per := BerToPer(1e-12, 1500)
	assert.InEpsilon(t, 1.2e-8, per, 1e-6)

	per = BerToPer(1e-18, 1)
	assert.InEpsilon(t, 8e-18, per, 1e-9)
}

func TestBerToPerMonotonic(t *testing.T) {
	bers := []float64{0, 1e-9, 1e-6, 1e-4, 1e-3, 0.01, 0.1, 0.3, 0.5, 0.9, 1.0}
	sizes := []uint32{0, 1, 2, 10, 100, 127, 1024, 1500, 65535}

	for _, ber := range bers {
		prev := -1.0
		for _, bytes := range sizes {
			per := BerToPer(ber, bytes)
			assert.True(t, per >= 0 && per <= 1)
			assert.GreaterOrEqual(t, per, prev, "ber=%v bytes=%v", ber, bytes)
			prev = per
		}
	}
	for _, bytes := range sizes {
		prev := -1.0
		for _, ber := range bers {
			per := BerToPer(ber, bytes)
			assert.GreaterOrEqual(t, per, prev, "ber=%v bytes=%v", ber, bytes)
			prev = per
		}
	}
}
