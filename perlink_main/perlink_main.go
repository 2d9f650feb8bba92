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

// Package perlink_main runs the perlink program: an interactive console, or a batch link run.
package perlink_main

import (
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/simplewireless/perlink/calibration"
	"github.com/simplewireless/perlink/cli"
	"github.com/simplewireless/perlink/config"
	"github.com/simplewireless/perlink/errmodel"
	"github.com/simplewireless/perlink/linksim"
	"github.com/simplewireless/perlink/logger"
	"github.com/simplewireless/perlink/metrics"
	"github.com/simplewireless/perlink/prng"
	"github.com/simplewireless/perlink/progctx"
)

type MainArgs struct {
	ConfigFile  string
	LogLevel    string
	LogFile     string
	Seed        int64
	MetricsAddr string
	Batch       bool
	KpiFile     string
	Sweep       string
	Model       string
	Calibration string
}

func parseArgs(fs *flag.FlagSet, argv []string) (*MainArgs, error) {
	args := &MainArgs{}
	fs.StringVar(&args.ConfigFile, "config", "", "specify a YAML run configuration file")
	fs.StringVar(&args.LogLevel, "log", "", "set logging level: trace, debug, info, warn, error (overrides the configuration)")
	fs.StringVar(&args.LogFile, "logfile", "", "also write the log to this file")
	fs.Int64Var(&args.Seed, "seed", 0, "set the random seed; 0 means the seed from the configuration, or time-based")
	fs.StringVar(&args.MetricsAddr, "metrics", "", "serve Prometheus metrics on the given address, e.g. localhost:9100")
	fs.BoolVar(&args.Batch, "batch", false, "run the configured link once and exit, instead of starting the console")
	fs.StringVar(&args.KpiFile, "kpi", "", "in batch mode, save the link KPIs to this JSON file")
	fs.StringVar(&args.Sweep, "sweep", "", "in batch mode, run the link at each of a comma-separated list of distances (m)")
	fs.StringVar(&args.Model, "model", "", "set the error model: bpsk, 802154, table")
	fs.StringVar(&args.Calibration, "calibration", "", "load the table error model from a calibration file (.yaml or .json)")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}
	return args, nil
}

// parseDistances parses a comma-separated list of distances.
func parseDistances(s string) ([]float64, error) {
	var distances []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid sweep distance '%s'", part)
		}
		distances = append(distances, d)
	}
	if len(distances) == 0 {
		return nil, errors.Errorf("empty sweep distance list '%s'", s)
	}
	return distances, nil
}

// loadRunConfig reads the run configuration and applies the command line overrides.
func loadRunConfig(args *MainArgs) (*config.RunConfig, error) {
	runCfg := config.DefaultRunConfig()
	if args.ConfigFile != "" {
		var err error
		if runCfg, err = config.LoadRunConfig(args.ConfigFile); err != nil {
			return nil, err
		}
	}
	if args.LogLevel != "" {
		runCfg.Log = args.LogLevel
	}
	if args.Seed != 0 {
		runCfg.Seed = args.Seed
	}
	if args.Model != "" {
		runCfg.ErrorModel.Name = args.Model
	}
	if args.Calibration != "" {
		runCfg.ErrorModel.Name = errmodel.TableModelName
		runCfg.ErrorModel.Calibration = args.Calibration
	}
	return runCfg, runCfg.Validate()
}

// consoleModel returns the error model the console starts with. Unlike a link run, the console accepts an
// empty table, to be filled with 'sample' commands.
func consoleModel(runCfg *config.RunConfig) (errmodel.ErrorModel, error) {
	if runCfg.ErrorModel.Calibration != "" {
		return calibration.LoadModel(runCfg.ErrorModel.Calibration)
	}
	return errmodel.NewErrorModel(runCfg.ErrorModel.Name)
}

func Main(ctx *progctx.ProgCtx, cliOptions *cli.CliOptions) {
	args, err := parseArgs(flag.CommandLine, os.Args[1:])
	logger.FatalIfError(err)

	runCfg, err := loadRunConfig(args)
	logger.FatalIfError(err)

	level, err := logger.ParseLevelString(runCfg.Log)
	logger.FatalIfError(err)
	logger.SetLevel(level)
	if args.LogFile != "" {
		logger.FatalIfError(logger.SetOutput([]string{"stderr", args.LogFile}))
	}
	defer logger.Sync()

	prng.Init(runCfg.Seed)
	logger.Debugf("random seed: %d", prng.RootSeed())

	handleSignals(ctx)

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	logger.FatalIfError(err)
	if args.MetricsAddr != "" {
		serveMetrics(ctx, args.MetricsAddr, collector)
	}

	if args.Batch {
		if err = runBatch(ctx, args, runCfg, collector, os.Stdout); err != nil && ctx.Err() == nil {
			ctx.Cancel(errors.Wrapf(err, "batch run failed"))
		} else {
			ctx.Cancel("batch done")
		}
	} else {
		model, err := consoleModel(runCfg)
		logger.FatalIfError(err)

		// run console in the main goroutine
		ctx.Defer(func() {
			_ = os.Stdin.Close()
		})
		rt := cli.NewCmdRunner(ctx, runCfg, model)
		rt.SetCollector(collector)
		cli.RunConsole(ctx, rt, cliOptions)
	}

	logger.Debugf("waiting for perlink to stop gracefully ...")
	ctx.Wait()

	if err, ok := ctx.Cause().(error); ok {
		logger.Fatalf("%v", err)
	}
}

// runBatch runs the configured link, or a distance sweep of it, and reports the KPIs.
func runBatch(ctx *progctx.ProgCtx, args *MainArgs, runCfg *config.RunConfig, collector *metrics.Collector,
	stdout io.Writer) error {
	linkCfg, err := linksim.FromRunConfig(runCfg)
	if err != nil {
		return err
	}
	if collector != nil {
		linkCfg.Collector = collector
		linkCfg.Observer = collector
	}

	if args.Sweep != "" {
		distances, err := parseDistances(args.Sweep)
		if err != nil {
			return err
		}
		kpis, err := linksim.Sweep(ctx, linkCfg, distances)
		if werr := yaml.NewEncoder(stdout).Encode(kpis); werr != nil && err == nil {
			err = werr
		}
		return err
	}

	kpi, err := linksim.Run(ctx, linkCfg)
	if kpi == nil {
		return err
	}
	logger.Infof("link %s/%s at %vm: echoed %d/%d (%.4f)", kpi.Radio, kpi.Model, kpi.Distance, kpi.Echoed,
		kpi.Uplink.Sent, kpi.EchoRatio)
	if args.KpiFile != "" {
		if serr := kpi.SaveFile(args.KpiFile); serr != nil && err == nil {
			err = serr
		}
	} else if werr := yaml.NewEncoder(stdout).Encode(kpi); werr != nil && err == nil {
		err = werr
	}
	return err
}

func serveMetrics(ctx *progctx.ProgCtx, addr string, collector *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	server := &http.Server{Addr: addr, Handler: mux}
	ctx.Defer(func() {
		_ = server.Close()
	})

	ctx.Go("metrics", func() {
		logger.Infof("serving metrics on http://%s/metrics", addr)
		err := server.ListenAndServe() // blocks until server.Close() called
		if err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
			logger.Errorf("metrics server stopped unexpectedly: %+v", err)
		}
	})
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)

	ctx.Go("handleSignals", func() {
		defer logger.Debugf("handleSignals exit.")
		defer signal.Stop(c)

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	})
}
