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
	"strconv"

	"github.com/alecthomas/participle"
	"github.com/pkg/errors"
)

// noinspection GoStructTag
type Command struct {
	Exit     *ExitCmd     `  @@` //nolint
	Help     *HelpCmd     `| @@` //nolint
	Link     *LinkCmd     `| @@` //nolint
	Load     *LoadCmd     `| @@` //nolint
	LogLevel *LogLevelCmd `| @@` //nolint
	Model    *ModelCmd    `| @@` //nolint
	Radio    *RadioCmd    `| @@` //nolint
	Receive  *ReceiveCmd  `| @@` //nolint
	Sample   *SampleCmd   `| @@` //nolint
	Samples  *SamplesCmd  `| @@` //nolint
	Save     *SaveCmd     `| @@` //nolint
	Sweep    *SweepCmd    `| @@` //nolint
}

// Number is a signed integer or floating point number.
// noinspection GoStructTag
type Number struct {
	Val string `@("-"? (Float|Int))` //nolint
}

func (n *Number) Float() float64 {
	f, err := strconv.ParseFloat(n.Val, 64)
	if err != nil {
		panic(errors.Wrapf(err, "invalid number %s", n.Val))
	}
	return f
}

// noinspection GoStructTag
type BytesFlag struct {
	Val int `"bytes" @Int` //nolint
}

// noinspection GoStructTag
type CountFlag struct {
	Val int `"count" @Int` //nolint
}

// noinspection GoStructTag
type SizeFlag struct {
	Val int `"size" @Int` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type LinkCmd struct {
	Cmd      struct{}   `"link"`  //nolint
	Distance Number     `@@`      //nolint
	Count    *CountFlag `( @@`    //nolint
	Size     *SizeFlag  `| @@ )*` //nolint
}

// noinspection GoStructTag
type LoadCmd struct {
	Cmd  struct{} `"load"`  //nolint
	Path string   `@String` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"loglevel"`                                                                                    //nolint
	Level string   `[@( "micro"|"trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"T"|"D"|"I"|"N"|"W"|"C"|"E" )]` //nolint
}

// noinspection GoStructTag
type ModelCmd struct {
	Cmd  struct{} `"model"`         //nolint
	Name string   `[(@Ident|@Int)]` //nolint
}

// noinspection GoStructTag
type RadioCmd struct {
	Cmd    struct{} `"radio"`         //nolint
	Preset string   `[@(Int? Ident)]` //nolint
}

// noinspection GoStructTag
type ReceiveCmd struct {
	Cmd    struct{}    `"receive"` //nolint
	Snr    *Number     `( @@`      //nolint
	Powers *PowersArgs `| @@ )`    //nolint
	Bytes  *BytesFlag  `[ @@ ]`    //nolint
}

// noinspection GoStructTag
type PowersArgs struct {
	RxPower Number `"rx" @@`    //nolint
	Noise   Number `"noise" @@` //nolint
}

// noinspection GoStructTag
type SampleCmd struct {
	Cmd struct{} `"sample"` //nolint
	Snr Number   `@@`       //nolint
	Per Number   `@@`       //nolint
}

// noinspection GoStructTag
type SamplesCmd struct {
	Cmd struct{} `"samples"` //nolint
}

// noinspection GoStructTag
type SaveCmd struct {
	Cmd  struct{} `"save"`  //nolint
	Path string   `@String` //nolint
}

// noinspection GoStructTag
type SweepCmd struct {
	Cmd   struct{}   `"sweep"` //nolint
	From  Number     `@@`      //nolint
	To    Number     `@@`      //nolint
	Step  Number     `@@`      //nolint
	Bytes *BytesFlag `[ @@ ]`  //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	return commandParser.ParseBytes(b, cmd)
}
