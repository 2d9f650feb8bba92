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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRunConfig = `
radio:
    model: 3gpp
    noise-floor: -90
    tx-power: 4
    interference: -93.5
error-model:
    name: table
    calibration: lab.yaml
link:
    distance: 12.5
    count: 50
    size: 127
    interval: 20ms
seed: 42
log: debug
`

func TestParseRunConfig(t *testing.T) {
	cfg, err := ParseRunConfig([]byte(testRunConfig))
	require.Nil(t, err)
	assert.Equal(t, "3gpp", cfg.Radio.Model)
	require.NotNil(t, cfg.Radio.NoiseFloor)
	assert.Equal(t, -90.0, *cfg.Radio.NoiseFloor)
	assert.Equal(t, 4.0, cfg.Radio.TxPower)
	assert.Equal(t, DefaultRxSensitivity, cfg.Radio.RxSensitivity)
	require.NotNil(t, cfg.Radio.Interference)
	assert.Equal(t, -93.5, *cfg.Radio.Interference)
	assert.Nil(t, cfg.Radio.ShadowFading)
	assert.Equal(t, "table", cfg.ErrorModel.Name)
	assert.Equal(t, "lab.yaml", cfg.ErrorModel.Calibration)
	assert.Equal(t, 12.5, cfg.Link.Distance)
	assert.Equal(t, 50, cfg.Link.Count)
	assert.Equal(t, uint32(127), cfg.Link.Size)
	assert.Equal(t, 20*time.Millisecond, cfg.Link.Interval)
	assert.False(t, cfg.Link.Realtime)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "debug", cfg.Log)
}

func TestParseEmptyRunConfigGivesDefaults(t *testing.T) {
	cfg, err := ParseRunConfig([]byte(""))
	require.Nil(t, err)
	assert.Equal(t, DefaultRunConfig(), cfg)
	assert.Equal(t, DefaultCount, cfg.Link.Count)
	assert.Equal(t, DefaultInterval, cfg.Link.Interval)
}

func TestParseRunConfigErrors(t *testing.T) {
	_, err := ParseRunConfig([]byte("radio:\n    modle: itu\n"))
	assert.NotNil(t, err)

	_, err = ParseRunConfig([]byte("link:\n    count: 0\n"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = ParseRunConfig([]byte("link:\n    distance: -1\n"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = ParseRunConfig([]byte("error-model:\n    name: \"\"\n"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadRunConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.Nil(t, os.WriteFile(path, []byte(testRunConfig), 0o644))

	cfg, err := LoadRunConfig(path)
	require.Nil(t, err)
	assert.Equal(t, int64(42), cfg.Seed)

	_, err = LoadRunConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, err)
}
