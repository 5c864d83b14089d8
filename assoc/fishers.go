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
	"context"
	"math"
	"sync"

	"collassoc/matrix"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	// blocksPerWorker controls how finely rows are split
	// among workers
	blocksPerWorker = 4
)

// FishersResult contains signed (and possibly log-transformed) p-values
// along with odds ratios. Both tables are oriented the same way as
// the input table.
type FishersResult struct {
	Scores     *matrix.Table
	OddsRatios *matrix.Table
}

// progressTracker counts processed cells and calls a progress
// function each time another `interval` cells are done.
type progressTracker struct {
	mu       sync.Mutex
	fn       ProgressFunc
	interval int
	total    int
	done     int
}

func (pt *progressTracker) add(n int) {
	if pt.fn == nil {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	prev := pt.done
	pt.done += n
	if pt.done/pt.interval > prev/pt.interval {
		pt.fn(pt.done, pt.total)
	}
}

func (pt *progressTracker) finish() {
	if pt.fn == nil {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.done%pt.interval != 0 || pt.done == 0 {
		pt.fn(pt.done, pt.total)
	}
}

// strength converts a p-value into a stored score based on observed
// and expected frequency.
//
// With log transformation, repulsion (a < e) yields log10(p) (<= 0)
// and attraction yields -log10(p) (>= 0); p == 0 produces an infinity.
// Without log transformation, p-value is either kept as is or
// negated in case of repulsion.
func strength(p, a, e float64, logTransform, signed bool) float64 {
	if logTransform {
		if a < e {
			return math.Log10(p)
		}
		return -math.Log10(p)
	}
	if signed && a < e {
		return -p
	}
	return p
}

// ApplyFishers applies Fisher's exact test to each cell of a co-occurrence
// table. The test is based on a 2x2 contingency table derived for the
// cell (see BuildContingency). By default, the resulting p-values are
// log10 transformed and signed so that positive values mean attraction
// and negative values mean repulsion of the sample and the feature.
//
// Cells are evaluated concurrently in row blocks. The context is checked
// before each block is started.
func ApplyFishers(
	ctx context.Context,
	t *matrix.Table,
	sampleAxis, featureAxis int,
	opts ...FishersOption,
) (*FishersResult, error) {
	conf := newFishersConf(opts)
	norm, err := NormalizeAxes(t, sampleAxis, featureAxis)
	if err != nil {
		return nil, err
	}
	cont := BuildContingency(norm.Data)
	nr, nc := norm.Data.Dims()
	scores := mat.NewDense(nr, nc, nil)
	odds := mat.NewDense(nr, nc, nil)

	tracker := &progressTracker{
		fn:       conf.progress,
		interval: conf.progressInterval,
		total:    nr * nc,
	}

	blockSize := max(1, nr/(conf.numWorkers*blocksPerWorker))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(conf.numWorkers)
	for from := 0; from < nr; from += blockSize {
		to := min(from+blockSize, nr)
		grp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			var et exactTest
			for i := from; i < to; i++ {
				scoreRow := scores.RawRowView(i)
				oddsRow := odds.RawRowView(i)
				for j := range nc {
					a := cont.A.At(i, j)
					oddsRatio, p := et.run(a, cont.B.At(i, j), cont.C.At(i, j), cont.D.At(i, j))
					oddsRow[j] = oddsRatio
					scoreRow[j] = strength(p, a, cont.E.At(i, j), conf.logTransform, conf.signed)
				}
			}
			tracker.add((to - from) * nc)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	tracker.finish()

	return &FishersResult{
		Scores:     restoreAxes(norm.WithData(scores), sampleAxis),
		OddsRatios: restoreAxes(norm.WithData(odds), sampleAxis),
	}, nil
}
