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
	"math"

	"collassoc/matrix"

	"github.com/montanaflynn/stats"
)

// Summary provides a quick overview of a result table. Min, Max,
// Mean and Median are calculated from finite values only.
type Summary struct {
	NumCells  int     `json:"numCells"`
	NumFinite int     `json:"numFinite"`
	NumNaN    int     `json:"numNaN"`
	NumPosInf int     `json:"numPosInf"`
	NumNegInf int     `json:"numNegInf"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
}

func Summarize(t *matrix.Table) Summary {
	var ans Summary
	nr, nc := t.Data.Dims()
	ans.NumCells = nr * nc
	finite := make(stats.Float64Data, 0, ans.NumCells)
	for i := range nr {
		for _, v := range t.Data.RawRowView(i) {
			switch {
			case math.IsNaN(v):
				ans.NumNaN++
			case math.IsInf(v, 1):
				ans.NumPosInf++
			case math.IsInf(v, -1):
				ans.NumNegInf++
			default:
				finite = append(finite, v)
			}
		}
	}
	ans.NumFinite = len(finite)
	if len(finite) == 0 {
		return ans
	}
	// errors below can be only stats.EmptyInputErr which is
	// already handled
	ans.Min, _ = finite.Min()
	ans.Max, _ = finite.Max()
	ans.Mean, _ = finite.Mean()
	ans.Median, _ = finite.Median()
	return ans
}
