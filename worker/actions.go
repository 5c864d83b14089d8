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
	"context"
	"fmt"
	"time"

	"collassoc/assoc"
	"collassoc/matrix"
	"collassoc/merror"
	"collassoc/rdb"
	"collassoc/rdb/results"

	"github.com/rs/zerolog/log"
)

// validateInput checks everything we can check before
// a computation starts
func (w *Worker) validateInput(t *matrix.Table, sampleAxis, featureAxis int) error {
	if err := assoc.ValidateAxes(sampleAxis, featureAxis); err != nil {
		return err
	}
	if t == nil {
		return merror.InputError{Msg: "missing matrix"}
	}
	nr, nc := t.Dims()
	if nr*nc > w.conf.MaxCells {
		return merror.InputError{
			Msg: fmt.Sprintf(
				"matrix too large (%d cells, max. allowed is %d)", nr*nc, w.conf.MaxCells)}
	}
	return t.ValidateCounts()
}

func (w *Worker) fishers(ctx context.Context, args rdb.FishersArgs) *results.Fishers {
	ans := &results.Fishers{
		LogTransform: args.LogTransform,
		Signed:       args.Signed,
	}
	if err := w.validateInput(args.Matrix, args.SampleAxis, args.FeatureAxis); err != nil {
		ans.Error = err
		return ans
	}
	t0 := time.Now()
	res, err := assoc.ApplyFishers(
		ctx,
		args.Matrix,
		args.SampleAxis,
		args.FeatureAxis,
		assoc.WithLogTransform(args.LogTransform),
		assoc.WithSigned(args.Signed),
		assoc.WithNumWorkers(w.conf.NumScoringWorkers),
		assoc.WithProgressInterval(w.conf.ProgressInterval),
		assoc.WithProgress(func(done, total int) {
			log.Info().
				Str("worker", w.ID).
				Int("cellsDone", done).
				Int("cellsTotal", total).
				Float64("percent", float64(done)/float64(total)*100).
				Dur("elapsed", time.Since(t0)).
				Msg("Fisher's exact test progress")
		}),
	)
	if err != nil {
		ans.Error = err
		return ans
	}
	ans.Scores = res.Scores
	ans.OddsRatios = res.OddsRatios
	ans.Summary = assoc.Summarize(res.Scores)
	return ans
}

func (w *Worker) deltaP(args rdb.DeltaPArgs) *results.DeltaP {
	ans := &results.DeltaP{}
	if err := w.validateInput(args.Matrix, args.SampleAxis, args.FeatureAxis); err != nil {
		ans.Error = err
		return ans
	}
	scores, err := assoc.ApplyDeltaP(args.Matrix, args.SampleAxis, args.FeatureAxis)
	if err != nil {
		ans.Error = err
		return ans
	}
	ans.Scores = scores
	ans.Summary = assoc.Summarize(scores)
	return ans
}

func (w *Worker) contingency(args rdb.ContingencyArgs) *results.Contingency {
	ans := &results.Contingency{}
	if err := w.validateInput(args.Matrix, args.SampleAxis, args.FeatureAxis); err != nil {
		ans.Error = err
		return ans
	}
	quads, err := assoc.ContingencyTable(args.Matrix, args.SampleAxis, args.FeatureAxis)
	if err != nil {
		ans.Error = err
		return ans
	}
	ans.Quadrants = quads
	return ans
}
