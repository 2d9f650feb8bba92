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

// Package cli implements the perlink console. It parses and executes CLI commands that configure error models
// and evaluate them.
package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/simplewireless/perlink/calibration"
	"github.com/simplewireless/perlink/config"
	"github.com/simplewireless/perlink/errmodel"
	"github.com/simplewireless/perlink/linksim"
	"github.com/simplewireless/perlink/logger"
	"github.com/simplewireless/perlink/metrics"
	"github.com/simplewireless/perlink/progctx"
	"github.com/simplewireless/perlink/radiomodel"
	. "github.com/simplewireless/perlink/types"
)

const (
	Prompt = "> "

	maxSweepPoints = 10000
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

// outputItemsAsYaml writes a list of items as YAML, one flow-style item per line.
func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

func (cc *CommandContext) outputAsYaml(v interface{}) {
	data, err := yaml.Marshal(v)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

// CmdRunner executes console commands against the current error model.
type CmdRunner struct {
	ctx       *progctx.ProgCtx
	lock      sync.Mutex
	runCfg    *config.RunConfig
	model     errmodel.ErrorModel
	collector *metrics.Collector
	help      Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, runCfg *config.RunConfig, model errmodel.ErrorModel) *CmdRunner {
	logger.AssertNotNil(model)
	rt := &CmdRunner{
		ctx:    ctx,
		runCfg: runCfg,
		help:   newHelp(),
	}
	rt.setModel(model)
	return rt
}

// SetCollector attaches a metrics collector to the current and all later error models.
func (rt *CmdRunner) SetCollector(c *metrics.Collector) {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	rt.collector = c
	rt.observe(rt.model)
}

// GetModel returns the current error model.
func (rt *CmdRunner) GetModel() errmodel.ErrorModel {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	return rt.model
}

func (rt *CmdRunner) setModel(model errmodel.ErrorModel) {
	rt.observe(model)
	rt.model = model
}

func (rt *CmdRunner) observe(model errmodel.ErrorModel) {
	if rt.collector == nil {
		return
	}
	if om, ok := model.(errmodel.Observable); ok {
		om.SetObserver(rt.collector)
	}
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}
		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic")
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	rt.lock.Lock()
	defer rt.lock.Unlock()

	if cmd.Receive != nil {
		rt.executeReceive(cc, cmd.Receive)
	} else if cmd.Sample != nil {
		rt.executeSample(cc, cmd.Sample)
	} else if cmd.Samples != nil {
		rt.executeSamples(cc)
	} else if cmd.Sweep != nil {
		rt.executeSweep(cc, cmd.Sweep)
	} else if cmd.Model != nil {
		rt.executeModel(cc, cmd.Model)
	} else if cmd.Load != nil {
		rt.executeLoad(cc, cmd.Load)
	} else if cmd.Save != nil {
		rt.executeSave(cc, cmd.Save)
	} else if cmd.Link != nil {
		rt.executeLink(cc, cmd.Link)
	} else if cmd.Radio != nil {
		rt.executeRadio(cc, cmd.Radio)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) frameBytes(flag *BytesFlag) (uint32, error) {
	if flag == nil {
		return rt.runCfg.Link.Size, nil
	}
	if flag.Val < 0 || int64(flag.Val) > math.MaxUint32 {
		return 0, errors.Errorf("invalid frame size %d", flag.Val)
	}
	return uint32(flag.Val), nil
}

func (rt *CmdRunner) tableModel() (*errmodel.TableErrorModel, error) {
	if tm, ok := rt.model.(*errmodel.TableErrorModel); ok {
		return tm, nil
	}
	return nil, errors.Errorf("current model '%s' is not a table model", rt.model.GetName())
}

func (rt *CmdRunner) executeReceive(cc *CommandContext, cmd *ReceiveCmd) {
	bytes, err := rt.frameBytes(cmd.Bytes)
	if err != nil {
		cc.error(err)
		return
	}

	var per float64
	if cmd.Powers != nil {
		per = errmodel.ReceivePowers(rt.model, cmd.Powers.RxPower.Float(), cmd.Powers.Noise.Float(), bytes)
	} else {
		per = rt.model.Receive(errmodel.SnrDb(cmd.Snr.Float()), bytes)
	}
	cc.outputf("%g\n", per)
}

func (rt *CmdRunner) executeSample(cc *CommandContext, cmd *SampleCmd) {
	tm, err := rt.tableModel()
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(tm.AddSample(cmd.Snr.Float(), cmd.Per.Float()))
}

func (rt *CmdRunner) executeSamples(cc *CommandContext) {
	tm, err := rt.tableModel()
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputItemsAsYaml(calibration.FromTableModel(tm).Samples)
}

func (rt *CmdRunner) executeSweep(cc *CommandContext, cmd *SweepCmd) {
	bytes, err := rt.frameBytes(cmd.Bytes)
	if err != nil {
		cc.error(err)
		return
	}
	snrs, err := sweepPoints(cmd.From.Float(), cmd.To.Float(), cmd.Step.Float())
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputItemsAsYaml(calibration.FromModel(rt.model, snrs, bytes).Samples)
}

func (rt *CmdRunner) executeModel(cc *CommandContext, cmd *ModelCmd) {
	if len(cmd.Name) > 0 {
		model, err := errmodel.NewErrorModel(cmd.Name)
		if err != nil {
			cc.error(err)
			return
		}
		rt.setModel(model)
	}
	cc.outputf("%s\n", rt.model.GetName())
}

func (rt *CmdRunner) executeLoad(cc *CommandContext, cmd *LoadCmd) {
	tm, err := calibration.LoadModel(cmd.Path)
	if err != nil {
		cc.error(err)
		return
	}
	rt.setModel(tm)
	cc.outputf("%s: %d samples\n", tm.GetName(), tm.Len())
}

func (rt *CmdRunner) executeSave(cc *CommandContext, cmd *SaveCmd) {
	tm, err := rt.tableModel()
	if err != nil {
		cc.error(err)
		return
	}
	if err = tm.Validate(); err != nil {
		cc.error(err)
		return
	}
	cc.error(calibration.Save(cmd.Path, calibration.FromTableModel(tm)))
}

func (rt *CmdRunner) executeLink(cc *CommandContext, cmd *LinkCmd) {
	if tm, ok := rt.model.(*errmodel.TableErrorModel); ok {
		if err := tm.Validate(); err != nil {
			cc.error(err)
			return
		}
	}

	runCfg := *rt.runCfg
	runCfg.Link.Distance = cmd.Distance.Float()
	runCfg.Link.Realtime = false
	if cmd.Count != nil {
		runCfg.Link.Count = cmd.Count.Val
	}
	if cmd.Size != nil {
		size, err := rt.frameBytes(&BytesFlag{Val: cmd.Size.Val})
		if err != nil {
			cc.error(err)
			return
		}
		runCfg.Link.Size = size
	}
	if err := runCfg.Validate(); err != nil {
		cc.error(err)
		return
	}

	// the current model replaces the configured one
	runCfg.ErrorModel = config.ErrorModelConfig{Name: errmodel.BpskModelName}
	linkCfg, err := linksim.FromRunConfig(&runCfg)
	if err != nil {
		cc.error(err)
		return
	}
	linkCfg.Model = rt.model
	linkCfg.Collector = rt.collector
	if rt.collector != nil {
		linkCfg.Observer = rt.collector
	}

	kpi, err := linksim.Run(rt.ctx, linkCfg)
	if kpi != nil {
		cc.outputAsYaml(kpi)
	}
	cc.error(err)
}

func (rt *CmdRunner) executeRadio(cc *CommandContext, cmd *RadioCmd) {
	if len(cmd.Preset) > 0 {
		if _, err := radiomodel.NewRadioModelParams(cmd.Preset); err != nil {
			cc.error(err)
			return
		}
		rt.runCfg.Radio.Model = cmd.Preset
	}
	cc.outputf("%s\n", rt.runCfg.Radio.Model)
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevel())
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *ExitCmd) {
	rt.ctx.Cancel("exit")
}

// sweepPoints returns the SNR values from..to (inclusive) in steps of step.
func sweepPoints(from, to, step DbValue) ([]DbValue, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, errors.Errorf("invalid sweep step %v", step)
	}
	if !(from <= to) {
		return nil, errors.Errorf("invalid sweep range %v..%v", from, to)
	}
	nf := math.Floor((to-from)/step+1e-9) + 1
	if !(nf <= maxSweepPoints) {
		return nil, errors.Errorf("sweep of %g points exceeds maximum of %d", nf, maxSweepPoints)
	}
	n := int(nf)
	points := make([]DbValue, n)
	for i := range points {
		points[i] = from + float64(i)*step
	}
	return points, nil
}
