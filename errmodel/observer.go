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

package errmodel

// LookupKind tells how the table model resolved a query.
type LookupKind int

const (
	CacheHit LookupKind = iota
	ExactMatch
	BelowRange
	AboveRange
	Interpolated
	EmptyTable
	InvalidQuery
)

func (k LookupKind) String() string {
	switch k {
	case CacheHit:
		return "cache_hit"
	case ExactMatch:
		return "exact"
	case BelowRange:
		return "below_range"
	case AboveRange:
		return "above_range"
	case Interpolated:
		return "interpolated"
	case EmptyTable:
		return "empty_table"
	case InvalidQuery:
		return "invalid_query"
	default:
		return "unknown"
	}
}

// Observer receives the results of error model evaluations, e.g. for tracing or metrics.
// Calls are made synchronously from Receive, outside of any model lock.
type Observer interface {
	OnReceive(model string, q Quality, bytes uint32, per float64)
	OnTableLookup(kind LookupKind)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnReceive(model string, q Quality, bytes uint32, per float64) {}

func (NopObserver) OnTableLookup(kind LookupKind) {}

// ObserverFuncs adapts plain functions to an Observer. Nil functions are skipped.
type ObserverFuncs struct {
	Receive     func(model string, q Quality, bytes uint32, per float64)
	TableLookup func(kind LookupKind)
}

func (o ObserverFuncs) OnReceive(model string, q Quality, bytes uint32, per float64) {
	if o.Receive != nil {
		o.Receive(model, q, bytes, per)
	}
}

func (o ObserverFuncs) OnTableLookup(kind LookupKind) {
	if o.TableLookup != nil {
		o.TableLookup(kind)
	}
}

type observed struct {
	observer Observer
}

func (ob *observed) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	ob.observer = o
}
