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

	. "github.com/simplewireless/perlink/types"
)

// computePathloss computes the path loss (dB) over a distance of dist units, for the log-distance model
// configured in params. If NLOS parameters are set, the largest of LOS and NLOS loss applies, as in the
// Indoor/Office 3GPP model of 3GPP TR 38.901 V17.0.0, Table 7.4.1-1.
// See also https://en.wikipedia.org/wiki/ITU_model_for_indoor_attenuation
func computePathloss(dist float64, params *RadioModelParams) DbValue {
	pathloss := 0.0
	distMeters := dist * params.MeterPerUnit
	if distMeters >= 0.01 {
		pathloss = params.ExponentDb*math.Log10(distMeters) + params.FixedLossDb
		if IsDefined(params.NlosExponentDb) && params.NlosExponentDb > 0.0 {
			pathlossNLOS := params.NlosExponentDb*math.Log10(distMeters) + params.NlosFixedLossDb
			pathloss = math.Max(pathloss, pathlossNLOS)
		}
		if pathloss < 0.0 {
			pathloss = 0.0
		}
	}
	return pathloss
}

// computeRxPower computes the received power (dBm) at distance dist from a transmitter of txPower (dBm),
// not including fading.
func computeRxPower(dist float64, txPower DbValue, params *RadioModelParams) DbValue {
	return txPower - computePathloss(dist, params)
}
