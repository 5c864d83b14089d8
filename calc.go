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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"collassoc/assoc"
	"collassoc/matrix"

	"github.com/rs/zerolog/log"
)

const (
	measureFishers     = "fishers"
	measureDeltaP      = "deltap"
	measureContingency = "contingency"
)

type calcArgs struct {
	measure     string
	sampleAxis  int
	featureAxis int
	noLog       bool
	unsigned    bool
	numWorkers  int
	outPath     string
	inPath      string
}

func parseCalcArgs(args []string) (calcArgs, error) {
	var ans calcArgs
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	fs.StringVar(&ans.measure, "measure", measureFishers, "association measure (fishers, deltap, contingency)")
	fs.IntVar(&ans.sampleAxis, "sample-axis", assoc.AxisRows, "axis holding samples (0 = rows, 1 = columns)")
	fs.IntVar(&ans.featureAxis, "feature-axis", assoc.AxisCols, "axis holding features (0 = rows, 1 = columns)")
	fs.BoolVar(&ans.noLog, "no-log", false, "output raw p-values instead of log10 transformed ones")
	fs.BoolVar(&ans.unsigned, "unsigned", false, "do not mark negative associations by sign")
	fs.IntVar(&ans.numWorkers, "workers", 0, "number of scoring goroutines (0 = number of CPUs)")
	fs.StringVar(&ans.outPath, "out", "", "output file (.csv or .xlsx)")
	if err := fs.Parse(args); err != nil {
		return ans, err
	}
	if fs.NArg() != 1 {
		return ans, errors.New("exactly one input file expected")
	}
	ans.inPath = fs.Arg(0)
	if ans.outPath == "" {
		return ans, errors.New("missing output file (-out)")
	}
	if _, err := matrix.DetectFileType(ans.outPath); err != nil {
		return ans, err
	}
	switch ans.measure {
	case measureFishers, measureDeltaP, measureContingency:
	default:
		return ans, fmt.Errorf("unknown measure `%s`", ans.measure)
	}
	return ans, assoc.ValidateAxes(ans.sampleAxis, ans.featureAxis)
}

func calculate(ctx context.Context, args calcArgs, input *matrix.Table) ([]matrix.NamedTable, error) {
	switch args.measure {
	case measureFishers:
		t0 := time.Now()
		res, err := assoc.ApplyFishers(
			ctx,
			input,
			args.sampleAxis,
			args.featureAxis,
			assoc.WithLogTransform(!args.noLog),
			assoc.WithSigned(!args.unsigned),
			assoc.WithNumWorkers(args.numWorkers),
			assoc.WithProgress(func(done, total int) {
				log.Info().
					Int("cellsDone", done).
					Int("cellsTotal", total).
					Float64("percent", float64(done)/float64(total)*100).
					Dur("elapsed", time.Since(t0)).
					Msg("Fisher's exact test progress")
			}),
		)
		if err != nil {
			return nil, err
		}
		return []matrix.NamedTable{
			{Name: "scores", Table: res.Scores},
			{Name: "odds_ratios", Table: res.OddsRatios},
		}, nil
	case measureDeltaP:
		scores, err := assoc.ApplyDeltaP(input, args.sampleAxis, args.featureAxis)
		if err != nil {
			return nil, err
		}
		return []matrix.NamedTable{{Name: "scores", Table: scores}}, nil
	case measureContingency:
		quads, err := assoc.ContingencyTable(input, args.sampleAxis, args.featureAxis)
		if err != nil {
			return nil, err
		}
		return []matrix.NamedTable{
			{Name: "a", Table: quads.A},
			{Name: "b", Table: quads.B},
			{Name: "c", Table: quads.C},
			{Name: "d", Table: quads.D},
			{Name: "e", Table: quads.E},
		}, nil
	}
	return nil, fmt.Errorf("unknown measure `%s`", args.measure)
}

// runCalc computes association scores of a local file
// without any Redis or worker involved.
func runCalc(rawArgs []string) error {
	args, err := parseCalcArgs(rawArgs)
	if errors.Is(err, flag.ErrHelp) {
		return nil

	} else if err != nil {
		return err
	}
	input, err := matrix.LoadFile(args.inPath)
	if err != nil {
		return err
	}
	if err := input.ValidateCounts(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	t0 := time.Now()
	tables, err := calculate(ctx, args, input)
	if err != nil {
		return err
	}
	// CSV files can hold only the primary table
	fileType, _ := matrix.DetectFileType(args.outPath)
	if fileType == matrix.FileTypeCSV {
		tables = tables[:1]
	}
	if err := matrix.WriteFile(args.outPath, tables...); err != nil {
		return err
	}
	nr, nc := input.Dims()
	if args.measure != measureContingency {
		summary := assoc.Summarize(tables[0].Table)
		log.Info().
			Str("measure", args.measure).
			Int("rows", nr).
			Int("cols", nc).
			Dur("elapsed", time.Since(t0)).
			Int("numFinite", summary.NumFinite).
			Int("numNaN", summary.NumNaN).
			Int("numPosInf", summary.NumPosInf).
			Int("numNegInf", summary.NumNegInf).
			Float64("min", summary.Min).
			Float64("max", summary.Max).
			Float64("mean", summary.Mean).
			Float64("median", summary.Median).
			Str("output", args.outPath).
			Msg("calculation finished")

	} else {
		log.Info().
			Str("measure", args.measure).
			Int("rows", nr).
			Int("cols", nc).
			Dur("elapsed", time.Since(t0)).
			Str("output", args.outPath).
			Msg("calculation finished")
	}
	return nil
}
