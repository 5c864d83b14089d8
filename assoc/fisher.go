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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"
)

// fisherRelErr is a relative tolerance used when comparing
// probabilities of individual tables with the probability
// of the observed table
const fisherRelErr = 1e-7

// fisherTailCutoff is a log of the relative contribution below which
// the rest of a tail is not summed
const fisherTailCutoff = -42.0

// exactTest evaluates two-sided Fisher's exact tests on 2x2 tables.
// It keeps a reusable buffer so a single instance must not be used
// concurrently.
type exactTest struct {
	logPmfs []float64
}

// FisherExact performs a two-sided Fisher's exact test on a 2x2
// contingency table [[a, b], [c, d]] and returns the (sample) odds
// ratio and the p-value.
//
// Values are truncated to integers. In case any row or column of the
// table sums to zero, the result is (NaN, 1). If b or c is zero, the
// odds ratio is +Inf. Negative or NaN values produce (NaN, NaN).
func FisherExact(a, b, c, d float64) (oddsRatio, pValue float64) {
	var et exactTest
	return et.run(a, b, c, d)
}

func (et *exactTest) run(a, b, c, d float64) (float64, float64) {
	if !validCount(a) || !validCount(b) || !validCount(c) || !validCount(d) {
		return math.NaN(), math.NaN()
	}
	a, b, c, d = math.Trunc(a), math.Trunc(b), math.Trunc(c), math.Trunc(d)
	if a+b == 0 || c+d == 0 || a+c == 0 || b+d == 0 {
		return math.NaN(), 1
	}
	oddsRatio := math.Inf(1)
	if b > 0 && c > 0 {
		oddsRatio = (a * d) / (b * c)
	}
	return oddsRatio, et.pValue(a, b, c, d)
}

func validCount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// hypergeom describes the distribution of the top-left cell of 2x2
// tables with fixed margins
type hypergeom struct {
	n1, n2, n float64
	lo, hi    float64
	logDenom  float64
}

func newHypergeom(n1, n2, n float64) hypergeom {
	return hypergeom{
		n1:       n1,
		n2:       n2,
		n:        n,
		lo:       math.Max(0, n-n2),
		hi:       math.Min(n, n1),
		logDenom: combin.LogGeneralizedBinomial(n1+n2, n),
	}
}

func (h hypergeom) logPmf(x float64) float64 {
	return combin.LogGeneralizedBinomial(h.n1, x) +
		combin.LogGeneralizedBinomial(h.n2, h.n-x) - h.logDenom
}

func (h hypergeom) mode() float64 {
	m := math.Floor((h.n + 1) * (h.n1 + 1) / (h.n1 + h.n2 + 2))
	return math.Min(math.Max(m, h.lo), h.hi)
}

// logStep returns log(pmf(x+dir) / pmf(x)) for dir = 1 or -1.
// Both x and x+dir must be within the support.
func (h hypergeom) logStep(x, dir float64) float64 {
	if dir < 0 {
		x--
	}
	lr := math.Log(((h.n1 - x) * (h.n - x)) / ((x + 1) * (h.n2 - h.n + x + 1)))
	if dir < 0 {
		return -lr
	}
	return lr
}

func (h hypergeom) inSupport(x float64) bool {
	return x >= h.lo && x <= h.hi
}

// tailStart searches from the mode in the direction dir for the
// first value with logPmf <= threshold. The pmf is monotonic on
// both sides of the mode so bisection applies.
func (h hypergeom) tailStart(mode, dir, threshold float64) (float64, bool) {
	out := h.hi
	if dir < 0 {
		out = h.lo
	}
	if out == mode || h.logPmf(out) > threshold {
		return 0, false
	}
	in := mode
	for math.Abs(out-in) > 1 {
		mid := math.Floor((in + out) / 2)
		if h.logPmf(mid) <= threshold {
			out = mid

		} else {
			in = mid
		}
	}
	return out, true
}

// collectTail adds log probabilities of x, x+dir, x+2*dir,... up to
// the support edge. The walk ends early once the rest of the tail
// cannot change the sum in double precision (the pmf is log-concave,
// so the remaining terms are bounded by a geometric series).
func (et *exactTest) collectTail(h hypergeom, x, lp, dir float64) {
	lpStart := lp
	et.logPmfs = append(et.logPmfs, lp)
	for next := x + dir; h.inSupport(next); next += dir {
		lr := h.logStep(x, dir)
		lp += lr
		x = next
		if lr < 0 && lp-math.Log(-math.Expm1(lr)) < lpStart+fisherTailCutoff {
			return
		}
		et.logPmfs = append(et.logPmfs, lp)
	}
}

// pValue sums the hypergeometric probabilities of all the tables
// (with the same margins) which are not more probable than the observed
// one. As the distribution is unimodal, such tables form two tails
// of the support. The tail with the observed table starts at the
// table itself (or at an equally probable one closer to the mode),
// the opposite one is found by bisection. Consecutive probabilities
// are then derived from their ratios.
func (et *exactTest) pValue(a, b, c, d float64) float64 {
	h := newHypergeom(a+b, c+d, a+c)
	lpExact := h.logPmf(a)
	threshold := lpExact + math.Log1p(fisherRelErr)
	mode := h.mode()
	if h.logPmf(mode) <= threshold {
		return 1
	}

	et.logPmfs = et.logPmfs[:0]
	dir := 1.0
	if a < mode {
		dir = -1
	}
	et.collectTail(h, a, lpExact, dir)
	lp := lpExact
	for x := a; x-dir != mode; x -= dir {
		lp += h.logStep(x, -dir)
		if lp > threshold {
			break
		}
		et.logPmfs = append(et.logPmfs, lp)
	}
	if x, ok := h.tailStart(mode, -dir, threshold); ok {
		et.collectTail(h, x, h.logPmf(x), -dir)
	}
	return math.Min(1, math.Exp(floats.LogSumExp(et.logPmfs)))
}
