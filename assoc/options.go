// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of COLLASSOC.
//
//  COLLASSOC is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  COLLASSOC is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with COLLASSOC.  If not, see <https://www.gnu.org/licenses/>.

package assoc

import (
	"runtime"
)

const (
	DefaultProgressInterval = 1000000
)

// ProgressFunc is called during long running calculations with
// number of already processed cells and total number of cells.
// Calls are serialized.
type ProgressFunc func(done, total int)

type fishersConf struct {
	logTransform     bool
	signed           bool
	numWorkers       int
	progress         ProgressFunc
	progressInterval int
}

// FishersOption configures ApplyFishers
type FishersOption func(*fishersConf)

// WithLogTransform sets whether p-values are log10 transformed
// (and signed) before they are stored. Default is true.
func WithLogTransform(v bool) FishersOption {
	return func(c *fishersConf) {
		c.logTransform = v
	}
}

// WithSigned sets whether untransformed p-values are negated in case
// of repulsion. Log-transformed values are always signed. Default is true.
func WithSigned(v bool) FishersOption {
	return func(c *fishersConf) {
		c.signed = v
	}
}

// WithNumWorkers sets number of concurrently processed row blocks.
// Values < 1 mean runtime.NumCPU().
func WithNumWorkers(n int) FishersOption {
	return func(c *fishersConf) {
		c.numWorkers = n
	}
}

// WithProgress sets a function reporting calculation progress
func WithProgress(fn ProgressFunc) FishersOption {
	return func(c *fishersConf) {
		c.progress = fn
	}
}

// WithProgressInterval sets number of cells between two progress reports
func WithProgressInterval(cells int) FishersOption {
	return func(c *fishersConf) {
		c.progressInterval = cells
	}
}

func newFishersConf(opts []FishersOption) fishersConf {
	conf := fishersConf{
		logTransform:     true,
		signed:           true,
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.numWorkers < 1 {
		conf.numWorkers = runtime.NumCPU()
	}
	if conf.progressInterval < 1 {
		conf.progressInterval = DefaultProgressInterval
	}
	return conf
}
