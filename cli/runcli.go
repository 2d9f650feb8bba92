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

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/simplewireless/perlink/logger"
	"github.com/simplewireless/perlink/progctx"
)

type CliHandler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

type CliOptions struct {
	EchoInput   bool
	HistoryFile string
	Stdin       *os.File
	Stdout      *os.File
}

func DefaultCliOptions() *CliOptions {
	return &CliOptions{
		HistoryFile: "/tmp/perlink-cmds.tmp",
	}
}

// CliInstance is the console. Its Run loop reads lines with readline and hands them to a CliHandler.
type CliInstance struct {
	Started          chan struct{}
	Options          *CliOptions
	readlineInstance *readline.Instance
	waitCliClosed    chan struct{}
}

// Cli is the singleton console instance.
var Cli = newCliInstance()

func newCliInstance() *CliInstance {
	return &CliInstance{
		Started:       make(chan struct{}),
		waitCliClosed: make(chan struct{}),
	}
}

// OnStdout restores the prompt after log output was written to the terminal.
func (cli *CliInstance) OnStdout() {
	if cli.readlineInstance != nil {
		cli.readlineInstance.Refresh()
	}
}

func getCliOptions(options *CliOptions) *CliOptions {
	if options == nil {
		options = DefaultCliOptions()
	}
	if options.Stdin == nil {
		options.Stdin = os.Stdin
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	return options
}

// Stop stops a running console and waits until its Run loop has returned.
func (cli *CliInstance) Stop() {
	<-cli.Started
	// readlineInstance.Close() can block here, so Run closes it. Sending ETX (Ctrl-C) first avoids readline
	// internally blocking on its Runes() select.
	_, _ = cli.Options.Stdin.WriteString("\003\n")
	_ = cli.Options.Stdin.Close()
	logger.Tracef("Waiting for CLI to stop ...")
	<-cli.waitCliClosed
	logger.Tracef("CLI wait-for-stop done.")
}

// keepTerminalState restores the state of fd, if it is a terminal, when the returned function is called.
func keepTerminalState(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !readline.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := readline.GetState(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		_ = readline.Restore(fd, state)
	}, nil
}

// Run runs the console until the input ends, the user interrupts it, or the handler returns an error.
func (cli *CliInstance) Run(handler CliHandler, options *CliOptions) error {
	defer logger.Debugf("CLI exit.")
	defer close(cli.waitCliClosed)

	options = getCliOptions(options)
	cli.Options = options

	started := false
	defer func() {
		if !started {
			close(cli.Started)
		}
	}()

	for _, f := range []*os.File{options.Stdin, options.Stdout} {
		restore, err := keepTerminalState(f)
		if err != nil {
			return err
		}
		defer restore()
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          handler.GetPrompt(),
		HistoryFile:     options.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           options.Stdin,
		Stdout:          options.Stdout,

		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			switch r {
			// block CtrlZ feature
			case readline.CharCtrlZ:
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = l.Close()
	}()
	cli.readlineInstance = l
	close(cli.Started)
	started = true

	stdout := options.Stdout
	for {
		l.SetPrompt(handler.GetPrompt())
		line, err := l.Readline()

		if len(line) > 0 && line[0] == readline.CharInterrupt {
			return nil
		} else if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue // Ctrl-C in midline edit only cancels the present cmd line.
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		if options.EchoInput {
			if _, err := stdout.WriteString(line + "\n"); err != nil {
				return err
			}
		}

		cmd := strings.TrimSpace(line)
		if len(cmd) == 0 || strings.HasPrefix(cmd, "#") {
			continue
		}

		err = handler.HandleCommand(cmd, l.Stdout())
		_ = stdout.Sync()
		if err != nil {
			return err
		}
	}
}

// RunConsole runs the console for the program context. Leaving the console cancels ctx.
func RunConsole(ctx *progctx.ProgCtx, handler CliHandler, options *CliOptions) {
	var err error
	defer func() {
		if err == nil || errors.Is(err, ctx.Err()) {
			ctx.Cancel("console exit")
		} else {
			ctx.Cancel(errors.Wrapf(err, "console exit"))
		}
	}()

	ctx.WaitAdd("cli", 1)
	defer ctx.WaitDone("cli")

	logger.SetStdoutCallback(Cli)
	defer logger.SetStdoutCallback(nil)

	err = Cli.Run(handler, options)
}
