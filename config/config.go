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

// Package config holds the run configuration of perlink, as loaded from a YAML file.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	. "github.com/simplewireless/perlink/types"
)

const (
	DefaultRadioModel    = "freespace"
	DefaultErrorModel    = "bpsk"
	DefaultTxPower       = 0.0
	DefaultRxSensitivity = -100.0
	DefaultDistance      = 25.0 // meters
	DefaultCount         = 1000
	DefaultSize          = 1024
	DefaultInterval      = 100 * time.Millisecond
	DefaultLogLevel      = "info"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type RadioConfig struct {
	Model         string   `yaml:"model"`
	NoiseFloor    *DbValue `yaml:"noise-floor,omitempty"`
	TxPower       DbValue  `yaml:"tx-power"`
	RxSensitivity DbValue  `yaml:"rx-sensitivity"`
	Interference  *DbValue `yaml:"interference,omitempty"`
	ShadowFading  *DbValue `yaml:"shadow-fading,omitempty"`
}

type ErrorModelConfig struct {
	Name        string `yaml:"name"`
	Calibration string `yaml:"calibration,omitempty"`
}

type LinkConfig struct {
	Distance float64       `yaml:"distance"`
	Count    int           `yaml:"count"`
	Size     uint32        `yaml:"size"`
	Interval time.Duration `yaml:"interval"`
	Realtime bool          `yaml:"realtime"`
}

type RunConfig struct {
	Radio      RadioConfig      `yaml:"radio"`
	ErrorModel ErrorModelConfig `yaml:"error-model"`
	Link       LinkConfig       `yaml:"link"`
	Seed       int64            `yaml:"seed"`
	Log        string           `yaml:"log"`
}

func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Radio: RadioConfig{
			Model:         DefaultRadioModel,
			TxPower:       DefaultTxPower,
			RxSensitivity: DefaultRxSensitivity,
		},
		ErrorModel: ErrorModelConfig{
			Name: DefaultErrorModel,
		},
		Link: LinkConfig{
			Distance: DefaultDistance,
			Count:    DefaultCount,
			Size:     DefaultSize,
			Interval: DefaultInterval,
		},
		Log: DefaultLogLevel,
	}
}

// ParseRunConfig parses a YAML run configuration. Fields not present keep their default value.
func ParseRunConfig(data []byte) (*RunConfig, error) {
	cfg := DefaultRunConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parsing run configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadRunConfig reads the run configuration file at path.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cfg, err := ParseRunConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "file %s", path)
	}
	return cfg, nil
}

func (cfg *RunConfig) Validate() error {
	switch {
	case cfg.Radio.Model == "":
		return errors.Wrap(ErrInvalidConfig, "radio model not set")
	case cfg.ErrorModel.Name == "":
		return errors.Wrap(ErrInvalidConfig, "error model not set")
	case cfg.Link.Distance < 0:
		return errors.Wrapf(ErrInvalidConfig, "negative link distance %v", cfg.Link.Distance)
	case cfg.Link.Count <= 0:
		return errors.Wrapf(ErrInvalidConfig, "link count %d must be positive", cfg.Link.Count)
	case cfg.Link.Size == 0:
		return errors.Wrap(ErrInvalidConfig, "link packet size must be positive")
	case cfg.Link.Interval < 0:
		return errors.Wrapf(ErrInvalidConfig, "negative link interval %v", cfg.Link.Interval)
	}
	return nil
}
