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

// Package calibration reads and writes error-rate calibration tables: measured or tabulated (SNR, PER)
// pairs that configure an errmodel.TableErrorModel.
package calibration

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/simplewireless/perlink/errmodel"
	. "github.com/simplewireless/perlink/types"
)

// Sample is one calibration point: the PER measured at an SNR (dB).
type Sample struct {
	Snr DbValue `yaml:"snr" json:"snr"`
	Per float64 `yaml:"per" json:"per"`
}

// Table is the file format of a calibration table.
type Table struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Samples     []Sample `yaml:"samples" json:"samples"`
}

// Parse parses a calibration table in YAML format.
func Parse(data []byte) (*Table, error) {
	table := &Table{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(table); err != nil {
		return nil, errors.Wrap(err, "parsing calibration table")
	}
	return table, nil
}

func parseJSON(data []byte) (*Table, error) {
	table := &Table{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(table); err != nil {
		return nil, errors.Wrap(err, "parsing calibration table")
	}
	return table, nil
}

func isJSONFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Load reads a calibration table file. A ".json" extension selects JSON, anything else YAML.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	parse := Parse
	if isJSONFile(path) {
		parse = parseJSON
	}
	table, err := parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "file %s", path)
	}
	return table, nil
}

// LoadModel reads a calibration table file and builds the error model from it.
func LoadModel(path string) (*errmodel.TableErrorModel, error) {
	table, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(table)
}

// Build creates a table error model from the calibration table. The first invalid sample aborts the build.
func Build(table *Table) (*errmodel.TableErrorModel, error) {
	if len(table.Samples) == 0 {
		return nil, errors.Wrapf(errmodel.ErrEmptyTable, "calibration table %q", table.Name)
	}
	m := errmodel.NewTableErrorModel()
	if table.Name != "" {
		m.Name = table.Name
	}
	for i, s := range table.Samples {
		if err := m.AddSample(s.Snr, s.Per); err != nil {
			return nil, errors.Wrapf(err, "sample %d (snr=%v, per=%v)", i, s.Snr, s.Per)
		}
	}
	return m, nil
}

// FromTableModel exports the samples of a table error model, in ascending SNR order.
func FromTableModel(m *errmodel.TableErrorModel) *Table {
	samples := m.Samples()
	table := &Table{
		Name:    m.GetName(),
		Samples: make([]Sample, 0, len(samples)),
	}
	for _, s := range samples {
		table.Samples = append(table.Samples, Sample{Snr: s.Snr, Per: s.Per})
	}
	return table
}

// FromModel tabulates any error model at the given SNR points (dB), for frames of the given size.
func FromModel(m errmodel.ErrorModel, snrs []DbValue, frameBytes uint32) *Table {
	table := &Table{
		Name:    m.GetName(),
		Samples: make([]Sample, 0, len(snrs)),
	}
	for _, snr := range snrs {
		table.Samples = append(table.Samples, Sample{
			Snr: snr,
			Per: m.Receive(errmodel.SnrDb(snr), frameBytes),
		})
	}
	return table
}

// Marshal serializes the table as YAML.
func Marshal(table *Table) ([]byte, error) {
	data, err := yaml.Marshal(table)
	return data, errors.WithStack(err)
}

// Save writes the table to a file. A ".json" extension selects JSON, anything else YAML.
func Save(path string, table *Table) error {
	var data []byte
	var err error

	if isJSONFile(path) {
		data, err = json.MarshalIndent(table, "", "  ")
	} else {
		data, err = Marshal(table)
	}
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, data, 0o644))
}
