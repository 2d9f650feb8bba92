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

package types

import "math"

// DbValue is a power ratio in dB, or an absolute power in dBm.
type DbValue = float64

type EndpointId = int

const (
	InvalidEndpointId EndpointId = 0
	MaxEndpointId     EndpointId = 0xffff
)

// RSSI limits used when reporting received power.
const (
	RssiInvalid       DbValue = 127
	RssiMax           DbValue = 126
	RssiMin           DbValue = -126
	RssiMinusInfinity DbValue = -127
)

// UndefinedDbValue marks a radio parameter that is not set by a parameter preset.
var UndefinedDbValue = math.NaN()

// IsDefined returns true if v is a defined (non-NaN) dB value.
func IsDefined(v DbValue) bool {
	return !math.IsNaN(v)
}

// DbToRatio converts a value in dB to a linear power ratio.
func DbToRatio(db DbValue) float64 {
	return math.Pow(10, db/10.0)
}

// RatioToDb converts a linear power ratio to dB. Non-positive ratios map to -Inf (zero) or NaN (negative).
func RatioToDb(ratio float64) DbValue {
	return 10.0 * math.Log10(ratio)
}
