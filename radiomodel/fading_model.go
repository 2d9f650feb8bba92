// Copyright (c) 2023, The OTNS Authors.
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

	"github.com/simplewireless/perlink/logger"
	"github.com/simplewireless/perlink/prng"
	. "github.com/simplewireless/perlink/types"
)

const (
	initialCacheSize = 1000
	maxCacheSize     = 1000000
)

type fadingModel struct {
	rndSeed   int64
	shFadeMap map[int64]DbValue
}

func newFadingModel() *fadingModel {
	return &fadingModel{
		rndSeed:   int64(prng.NewFadingRandomSeed()),
		shFadeMap: make(map[int64]DbValue, initialCacheSize),
	}
}

// computeFading calculates shadow fading (SF) for a radio link based on a simple random process.
//
// SF models a fixed, position-dependent signal power attenuation (SF>0) or increase (SF<0) due to multipath effects
// and static obstacles. In the dB domain it is a normal distribution (mu=0, sigma).
// A symmetric link is assumed between transmitter/receiver: reversing roles gives the same SF value.
// See https://en.wikipedia.org/wiki/Fading and 3GPP TR 38.901 V17.0.0, section 7.4.1 and 7.4.4.
func (sf *fadingModel) computeFading(src *Endpoint, dst *Endpoint, params *RadioModelParams) DbValue {
	if !IsDefined(params.ShadowFadingSigmaDb) || params.ShadowFadingSigmaDb <= 0.0 {
		return 0.0
	}

	// each unique (src,dst) link gets a unique random seed
	seed := sf.rndSeed + calcLinkUID(src, dst, params.MeterPerUnit)
	if v, ok := sf.shFadeMap[seed]; ok {
		return v
	}

	if len(sf.shFadeMap) >= maxCacheSize {
		sf.clearCaches()
	}
	// draw a single (reproducible) random number based on the link's unique seed, and store it.
	rnd := prng.NewSource(prng.RandomSeed(seed))
	v := rnd.NormFloat64() * params.ShadowFadingSigmaDb
	sf.shFadeMap[seed] = v
	return v
}

func (sf *fadingModel) clearCaches() {
	logger.Debugf("Radio fading model: purging fadeMap cache")
	sf.shFadeMap = make(map[int64]DbValue, initialCacheSize)
}

func calcLinkUID(src *Endpoint, dst *Endpoint, meterPerUnit float64) int64 {
	// endpoint positions in grid units of 5 m, using only positive values (uint16 range)
	x1 := uint16(math.Round(src.X*meterPerUnit*0.2) + 32768)
	y1 := uint16(math.Round(src.Y*meterPerUnit*0.2) + 32768)
	x2 := uint16(math.Round(dst.X*meterPerUnit*0.2) + 32768)
	y2 := uint16(math.Round(dst.Y*meterPerUnit*0.2) + 32768)
	xL, yL, xR, yR := x2, y2, x1, y1

	// use left-most endpoint (and in case of doubt, top-most)
	if x1 < x2 || (x1 == x2 && y1 < y2) {
		xL, yL, xR, yR = x1, y1, x2, y2
	}

	return int64(xL) + int64(yL)<<16 + int64(xR)<<32 + int64(yR)<<48
}
