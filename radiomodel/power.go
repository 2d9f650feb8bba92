// Copyright (c) 2022-2023, The OTNS Authors.
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

func dbmToMilliwatt(p DbValue) float64 {
	return math.Pow(10, p/10.0)
}

func milliwattToDbm(mw float64) DbValue {
	if !(mw > 0) {
		return UndefinedDbValue
	}
	return 10.0 * math.Log10(mw)
}

// addSignalPowersDbm returns the power in dBm of uncorrelated signals added together. Undefined powers
// are skipped; the result is undefined only if all are.
func addSignalPowersDbm(powers ...DbValue) DbValue {
	total := 0.0
	last := UndefinedDbValue
	n := 0
	for _, p := range powers {
		if IsDefined(p) {
			total += dbmToMilliwatt(p)
			last = p
			n++
		}
	}
	if n == 1 {
		return last
	}
	return milliwattToDbm(total)
}

// clipRssi rounds an RSSI (dBm) to whole dB, within the range that can be reported.
func clipRssi(rssi DbValue) DbValue {
	switch {
	case rssi > RssiMax:
		return RssiMax
	case rssi < RssiMin:
		return RssiMinusInfinity
	default:
		return math.Round(rssi)
	}
}
