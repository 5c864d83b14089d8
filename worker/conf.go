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

package worker

import (
	"fmt"
	"runtime"

	"collassoc/assoc"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxCells           = 50_000_000
	DefaultResultCacheMaxCost = 256 * 1024 * 1024
)

type Conf struct {

	// NumScoringWorkers specifies how many goroutines score
	// row blocks of a single Fisher job. Zero means "number of CPUs".
	NumScoringWorkers int `json:"numScoringWorkers"`

	// ProgressInterval is the number of scored cells between
	// two progress log records
	ProgressInterval int `json:"progressInterval"`

	// MaxCells limits size of accepted matrices
	MaxCells int `json:"maxCells"`

	// ResultCacheMaxCost is a max. total size (in bytes) of cached
	// serialized results. A negative value disables the cache.
	ResultCacheMaxCost int64 `json:"resultCacheMaxCost"`
}

func (conf *Conf) ValidateAndDefaults() error {
	if conf.NumScoringWorkers < 0 {
		return fmt.Errorf("numScoringWorkers must be a non-negative number")
	}
	if conf.NumScoringWorkers == 0 {
		conf.NumScoringWorkers = runtime.NumCPU()
		log.Warn().
			Int("value", conf.NumScoringWorkers).
			Msg("worker.numScoringWorkers not set, using number of CPUs")
	}
	if conf.ProgressInterval <= 0 {
		conf.ProgressInterval = assoc.DefaultProgressInterval
		log.Warn().
			Int("value", conf.ProgressInterval).
			Msg("worker.progressInterval not set, using default")
	}
	if conf.MaxCells <= 0 {
		conf.MaxCells = DefaultMaxCells
		log.Warn().
			Int("value", conf.MaxCells).
			Msg("worker.maxCells not set, using default")
	}
	if conf.ResultCacheMaxCost == 0 {
		conf.ResultCacheMaxCost = DefaultResultCacheMaxCost
		log.Warn().
			Int64("value", conf.ResultCacheMaxCost).
			Msg("worker.resultCacheMaxCost not set, using default")
	}
	return nil
}
