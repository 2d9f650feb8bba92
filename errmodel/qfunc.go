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

	"github.com/pkg/errors"
)

// qApproxDenominator is the constant c of the Q-function approximation. c = 1.135*sqrt(2*pi), as in
// G. K. Karagiannidis and A. S. Lioumpas, "An improved approximation for the Gaussian Q-function", 2007.
const qApproxDenominator = 2.845

const bitsPerByte = 8

// QFunction approximates the tail probability of the standard normal distribution:
//
//	Q(x) ~= (1 - exp(-1.4x)) * exp(-x^2/2) / (c*x)
//
// Q(0) is 0.5. A negative or NaN x is a programming error and panics.
func QFunction(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		panic(errors.Errorf("QFunction: argument must be >= 0, got %v", x))
	}
	if x == 0 {
		return 0.5
	}
	// -expm1 keeps precision of 1-exp(-1.4x) for small x.
	q := -math.Expm1(-1.4*x) * math.Exp(-0.5*x*x) / (qApproxDenominator * x)
	return math.Min(q, 0.5)
}

// BerToPer converts a bit error rate to the error rate of a frame of the given number of bytes:
//
//	PER = 1 - (1 - BER)^(8*bytes)
//
// It is evaluated as -expm1(n*log1p(-BER)), which stays accurate for tiny BER and long frames.
func BerToPer(ber float64, bytes uint32) float64 {
	if bytes == 0 || ber <= 0.0 {
		return 0.0
	}
	if ber >= 1.0 || math.IsNaN(ber) {
		return 1.0
	}
	nbits := float64(bytes) * bitsPerByte
	return clampProbability(-math.Expm1(nbits * math.Log1p(-ber)))
}
