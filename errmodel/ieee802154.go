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

import "math"

// reference: IEEE 802.15.4-2006, E.4.1.8 Bit Error Rate (BER) calculations
// binomialCoeff[i] = (-1)^k * C(16,k) for k = i+2.
var (
	binomialCoeff = []float64{120, -560, 1820, -4368, 8008, -11440, 12870, -11440, 8008, -4368, 1820, -560, 120, -16, 1}
)

// Ieee802154ErrorModel is the analytic error model of the IEEE 802.15.4 2.4 GHz O-QPSK DSSS PHY.
type Ieee802154ErrorModel struct {
	observed
}

func NewIeee802154ErrorModel() *Ieee802154ErrorModel {
	m := &Ieee802154ErrorModel{}
	m.SetObserver(nil)
	return m
}

func (m *Ieee802154ErrorModel) GetName() string {
	return Ieee802154ModelName
}

func (m *Ieee802154ErrorModel) Receive(q Quality, bytes uint32) float64 {
	per := oqpskPacketErrorRate(q.Ratio(), bytes)
	m.observer.OnReceive(Ieee802154ModelName, q, bytes, per)
	return per
}

func oqpskPacketErrorRate(snr float64, bytes uint32) float64 {
	if bytes == 0 {
		return 0.0
	}
	if !(snr > 0) {
		return 1.0
	}
	return BerToPer(oqpskBitErrorRate(snr), bytes)
}

func oqpskBitErrorRate(snr float64) float64 {
	ber := 0.0
	for idx, coeff := range binomialCoeff {
		k := float64(idx + 2)
		ber += coeff * math.Exp(20.0*snr*(1.0/k-1.0))
	}
	ber = ber * 8.0 / 15.0 / 16.0

	// the alternating sum can slightly undershoot 0 at high SNR.
	return math.Max(0.0, math.Min(ber, 0.5))
}
