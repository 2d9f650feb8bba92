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

package perlink_main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/simplewireless/perlink/config"
	"github.com/simplewireless/perlink/errmodel"
	"github.com/simplewireless/perlink/linksim"
	"github.com/simplewireless/perlink/metrics"
	"github.com/simplewireless/perlink/progctx"
)

var testConfig = `
radio:
    model: freespace
error-model:
    name: 802154
link:
    distance: 2
    count: 20
    size: 50
seed: 7
`

func writeFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseArgs(t *testing.T) {
	args, err := parseArgs(flag.NewFlagSet("perlink", flag.ContinueOnError),
		[]string{"-batch", "-seed", "3", "-kpi", "out.json", "-model", "bpsk", "-sweep", "1,2"})
	require.Nil(t, err)
	assert.True(t, args.Batch)
	assert.Equal(t, int64(3), args.Seed)
	assert.Equal(t, "out.json", args.KpiFile)
	assert.Equal(t, "bpsk", args.Model)
	assert.Equal(t, "1,2", args.Sweep)
	assert.Equal(t, "", args.ConfigFile)

	fs := flag.NewFlagSet("perlink", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	_, err = parseArgs(fs, []string{"-nosuchflag"})
	assert.NotNil(t, err)

	_, err = parseArgs(flag.NewFlagSet("perlink", flag.ContinueOnError), []string{"extra"})
	assert.NotNil(t, err)
}

func TestParseDistances(t *testing.T) {
	distances, err := parseDistances("1, 2.5,10,")
	require.Nil(t, err)
	assert.Equal(t, []float64{1, 2.5, 10}, distances)

	_, err = parseDistances("1,x")
	assert.NotNil(t, err)
	_, err = parseDistances(" , ")
	assert.NotNil(t, err)
}

func TestLoadRunConfig(t *testing.T) {
	runCfg, err := loadRunConfig(&MainArgs{})
	require.Nil(t, err)
	assert.Equal(t, config.DefaultRunConfig(), runCfg)

	path := writeFile(t, "run.yaml", testConfig)
	runCfg, err = loadRunConfig(&MainArgs{ConfigFile: path, Seed: 11, LogLevel: "debug"})
	require.Nil(t, err)
	assert.Equal(t, "802154", runCfg.ErrorModel.Name)
	assert.Equal(t, 20, runCfg.Link.Count)
	assert.Equal(t, int64(11), runCfg.Seed)
	assert.Equal(t, "debug", runCfg.Log)

	runCfg, err = loadRunConfig(&MainArgs{ConfigFile: path, Calibration: "lab.yaml"})
	require.Nil(t, err)
	assert.Equal(t, errmodel.TableModelName, runCfg.ErrorModel.Name)
	assert.Equal(t, "lab.yaml", runCfg.ErrorModel.Calibration)

	_, err = loadRunConfig(&MainArgs{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.NotNil(t, err)
}

func TestConsoleModel(t *testing.T) {
	runCfg := config.DefaultRunConfig()
	runCfg.ErrorModel.Name = errmodel.TableModelName
	model, err := consoleModel(runCfg)
	require.Nil(t, err)
	assert.Equal(t, errmodel.TableModelName, model.GetName())

	runCfg.ErrorModel.Calibration = writeFile(t, "cal.yaml", "name: lab\nsamples:\n  - {snr: 0, per: 0.5}\n")
	model, err = consoleModel(runCfg)
	require.Nil(t, err)
	assert.Equal(t, "lab", model.GetName())
}

func TestRunBatchKpiFile(t *testing.T) {
	ctx := progctx.New(context.Background())
	defer ctx.Cancel("test done")
	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	require.Nil(t, err)

	args := &MainArgs{ConfigFile: writeFile(t, "run.yaml", testConfig)}
	args.KpiFile = filepath.Join(t.TempDir(), "kpi.json")
	runCfg, err := loadRunConfig(args)
	require.Nil(t, err)

	var stdout bytes.Buffer
	require.Nil(t, runBatch(ctx, args, runCfg, collector, &stdout))
	assert.Equal(t, 0, stdout.Len())

	data, err := os.ReadFile(args.KpiFile)
	require.Nil(t, err)
	var kpi linksim.Kpi
	require.Nil(t, json.Unmarshal(data, &kpi))
	assert.Equal(t, linksim.StatusOk, kpi.Status)
	assert.Equal(t, "802154", kpi.Model)
	assert.Equal(t, 20, kpi.Uplink.Sent)
	assert.Equal(t, 20, kpi.Echoed)
	assert.Equal(t, 40.0, testutil.ToFloat64(collector.Frames.WithLabelValues(metrics.FrameOk)))
}

func TestRunBatchSweep(t *testing.T) {
	ctx := progctx.New(context.Background())
	defer ctx.Cancel("test done")

	args := &MainArgs{Sweep: "1,1000000"}
	runCfg, err := loadRunConfig(args)
	require.Nil(t, err)
	runCfg.Link.Count = 10

	var stdout bytes.Buffer
	require.Nil(t, runBatch(ctx, args, runCfg, nil, &stdout))

	var kpis []linksim.Kpi
	require.Nil(t, yaml.Unmarshal(stdout.Bytes(), &kpis))
	require.Equal(t, 2, len(kpis))
	assert.Equal(t, 10, kpis[0].Echoed)
	assert.Equal(t, 0, kpis[1].Echoed)
	assert.Equal(t, 10, kpis[1].Uplink.Lost)
}

func TestRunBatchTableWithoutCalibration(t *testing.T) {
	ctx := progctx.New(context.Background())
	defer ctx.Cancel("test done")

	args := &MainArgs{Model: errmodel.TableModelName}
	runCfg, err := loadRunConfig(args)
	require.Nil(t, err)
	assert.NotNil(t, runBatch(ctx, args, runCfg, nil, &bytes.Buffer{}))
}
