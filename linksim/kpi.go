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

package linksim

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

const (
	StatusOk        = "ok"
	StatusCancelled = "cancelled"
)

type KpiTimeSec struct {
	PeriodSec float64 `json:"duration" yaml:"duration"`
	WallSec   float64 `json:"wall" yaml:"wall"`
}

// KpiDirection holds the frame counts and error rates of one direction of the link.
type KpiDirection struct {
	Sent         int     `json:"tx" yaml:"tx"`
	Received     int     `json:"rx" yaml:"rx"`
	Corrupted    int     `json:"corrupted" yaml:"corrupted"`
	Lost         int     `json:"lost" yaml:"lost"`
	Per          float64 `json:"per" yaml:"per"`
	PredictedPer float64 `json:"predicted_per" yaml:"predicted_per"`
	SnrDb        float64 `json:"snr_db" yaml:"snr_db"`
	RxPowerDbm   float64 `json:"rx_power_dbm" yaml:"rx_power_dbm"`

	sumPer float64
}

type Kpi struct {
	FileTime   string       `json:"created" yaml:"created,omitempty"`
	Status     string       `json:"status" yaml:"status"`
	Radio      string       `json:"radio" yaml:"radio"`
	Model      string       `json:"model" yaml:"model"`
	Distance   float64      `json:"distance" yaml:"distance"`
	PacketSize uint32       `json:"packet_size" yaml:"packet_size"`
	Time       KpiTimeSec   `json:"time_sec" yaml:"time_sec"`
	Uplink     KpiDirection `json:"client_to_server" yaml:"client_to_server"`
	Downlink   KpiDirection `json:"server_to_client" yaml:"server_to_client"`
	Echoed     int          `json:"echoed" yaml:"echoed"`
	EchoRatio  float64      `json:"echo_ratio" yaml:"echo_ratio"`
}

// SaveFile writes the KPIs as JSON to the file fn.
func (kpi *Kpi) SaveFile(fn string) error {
	kpi.FileTime = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(kpi, "", "    ")
	if err != nil {
		return errors.Wrap(err, "could not marshal KPI JSON data")
	}

	if err = os.WriteFile(fn, data, 0644); err != nil {
		return errors.Wrapf(err, "could not write KPI JSON file %s", fn)
	}
	return nil
}

func (d *KpiDirection) calculate() {
	if d.Sent == 0 {
		return
	}
	d.Per = float64(d.Sent-d.Received) / float64(d.Sent)
	d.PredictedPer = d.sumPer / float64(d.Sent)
}

func (kpi *Kpi) calculate() {
	kpi.Uplink.calculate()
	kpi.Downlink.calculate()
	if kpi.Uplink.Sent > 0 {
		kpi.EchoRatio = float64(kpi.Echoed) / float64(kpi.Uplink.Sent)
	}
}
