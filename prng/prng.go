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

// Package prng provides the seeded random sources of a link run. Error models themselves are
// deterministic; only the channel draws random numbers to decide frame corruption.
package prng

import (
	"math/rand"
	"sync"
	"time"
)

type RandomSeed int64

var (
	rootSeedUsed         int64
	channelSeedGenerator *rand.Rand
	fadingSeedGenerator  *rand.Rand
	unitRandGenerator    *rand.Rand
	generatorLock        sync.Mutex
)

func init() {
	Init(0)
}

// Init initializes the prng package, either with a fixed PRNG seed (rootSeed != 0) or a 'random' time-based PRNG
// seed (if rootSeed == 0).
func Init(rootSeed int64) {
	generatorLock.Lock()
	defer generatorLock.Unlock()

	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	rootSeedUsed = rootSeed
	root := rand.New(rand.NewSource(rootSeed))

	channelSeedGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	fadingSeedGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	unitRandGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
}

// RootSeed returns the root seed used by the last Init call.
func RootSeed() int64 {
	generatorLock.Lock()
	defer generatorLock.Unlock()
	return rootSeedUsed
}

// NewChannelRandomSeed generates unique random-seeds for newly created channels.
func NewChannelRandomSeed() RandomSeed {
	generatorLock.Lock()
	defer generatorLock.Unlock()
	return RandomSeed(channelSeedGenerator.Int63())
}

// NewFadingRandomSeed generates unique random-seeds for newly created fading models.
func NewFadingRandomSeed() RandomSeed {
	generatorLock.Lock()
	defer generatorLock.Unlock()
	return RandomSeed(fadingSeedGenerator.Int63())
}

// NewUnitRandom generates a new random unit [0, 1) float, which can be used as a random probability.
func NewUnitRandom() float64 {
	generatorLock.Lock()
	defer generatorLock.Unlock()
	return unitRandGenerator.Float64()
}

// NewSource returns a new, independent random generator for a given seed.
func NewSource(seed RandomSeed) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}
