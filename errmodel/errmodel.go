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

// Package errmodel computes the probability that a received frame is corrupted, from the channel quality
// (SNR) and the frame length. Models are deterministic: no randomness, no I/O and no logging happen here.
// Deciding if a frame actually gets corrupted, by a random draw against the returned probability, is up
// to the caller.
package errmodel

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	. "github.com/simplewireless/perlink/types"
)

// Names of the available error models.
const (
	BpskModelName       = "bpsk"
	Ieee802154ModelName = "802154"
	TableModelName      = "table"
)

var (
	ErrInvalidPer   = errors.New("packet error rate out of range [0,1]")
	ErrInvalidSnr   = errors.New("SNR out of accepted range")
	ErrEmptyTable   = errors.New("error-rate table has no samples")
	ErrUnknownModel = errors.New("unknown error model")
)

// ErrorModel produces a packet error probability for a frame of a given size, received at a given channel
// quality. The result is always in [0,1].
type ErrorModel interface {
	Receive(q Quality, bytes uint32) float64
	GetName() string
}

// Observable is implemented by error models that report their results to an Observer.
type Observable interface {
	SetObserver(o Observer)
}

// Quality is the channel quality for a received frame. It keeps the representation the caller supplied,
// so that converting back to that representation is exact.
type Quality struct {
	value  float64
	linear bool
}

// SnrDb creates a Quality from an SNR in dB.
func SnrDb(snr DbValue) Quality {
	return Quality{value: snr}
}

// SnrRatio creates a Quality from an SNR given as a linear power ratio.
func SnrRatio(snr float64) Quality {
	return Quality{value: snr, linear: true}
}

// SnrFromPowers creates a Quality from a received power and a noise power, both in dBm.
func SnrFromPowers(rxPowerDbm DbValue, noisePowerDbm DbValue) Quality {
	return SnrDb(rxPowerDbm - noisePowerDbm)
}

// Db returns the SNR in dB.
func (q Quality) Db() DbValue {
	if q.linear {
		return RatioToDb(q.value)
	}
	return q.value
}

// Ratio returns the SNR as a linear power ratio.
func (q Quality) Ratio() float64 {
	if q.linear {
		return q.value
	}
	return DbToRatio(q.value)
}

func (q Quality) String() string {
	if q.linear {
		return fmt.Sprintf("snr=%g", q.value)
	}
	return fmt.Sprintf("snr=%gdB", q.value)
}

// ReceivePowers evaluates m for a frame received at rxPowerDbm, with a noise power of noisePowerDbm.
func ReceivePowers(m ErrorModel, rxPowerDbm DbValue, noisePowerDbm DbValue, bytes uint32) float64 {
	return m.Receive(SnrFromPowers(rxPowerDbm, noisePowerDbm), bytes)
}

// NewErrorModel creates a new error model of the given name.
func NewErrorModel(name string) (ErrorModel, error) {
	switch strings.ToLower(name) {
	case BpskModelName:
		return NewBpskErrorModel(), nil
	case Ieee802154ModelName, "ieee802154", "oqpsk":
		return NewIeee802154ErrorModel(), nil
	case TableModelName:
		return NewTableErrorModel(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownModel, "%q", name)
	}
}

// clampProbability forces p into [0,1]. NaN is treated as a certain error.
func clampProbability(p float64) float64 {
	if math.IsNaN(p) || p > 1.0 {
		return 1.0
	}
	if p < 0.0 {
		return 0.0
	}
	return p
}
