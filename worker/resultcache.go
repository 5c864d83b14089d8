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
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"collassoc/rdb"

	"github.com/dgraph-io/ristretto"
)

type cachedResult struct {
	resultType rdb.ResultType
	value      []byte
}

// ResultCache keeps serialized results of recently processed
// queries so repeated queries with the same arguments skip
// the computation. Only results without errors are stored.
// A nil *ResultCache is a valid disabled cache.
type ResultCache struct {
	cache *ristretto.Cache
}

func (rc *ResultCache) mkKey(fn string, args []byte) string {
	h := sha1.New()
	h.Write([]byte(fn))
	h.Write([]byte{0})
	h.Write(args)
	return hex.EncodeToString(h.Sum(nil))
}

func (rc *ResultCache) Get(fn string, args []byte) (*rdb.WorkerResult, bool) {
	if rc == nil {
		return nil, false
	}
	v, ok := rc.cache.Get(rc.mkKey(fn, args))
	if !ok {
		return nil, false
	}
	item, ok := v.(cachedResult)
	if !ok {
		return nil, false
	}
	return &rdb.WorkerResult{
		ResultType: item.resultType,
		Value:      item.value,
	}, true
}

// Set stores the result. It returns false if the result
// was not accepted (errors, rejected by the cache policy).
func (rc *ResultCache) Set(fn string, args []byte, res *rdb.WorkerResult) bool {
	if rc == nil || res.ResultType == rdb.ResultTypeError || res.Error() != nil {
		return false
	}
	item := cachedResult{
		resultType: res.ResultType,
		value:      append([]byte(nil), res.Value...),
	}
	return rc.cache.Set(rc.mkKey(fn, args), item, int64(len(item.value)))
}

// Wait blocks until all pending writes are applied
func (rc *ResultCache) Wait() {
	if rc != nil {
		rc.cache.Wait()
	}
}

func (rc *ResultCache) Close() {
	if rc != nil {
		rc.cache.Close()
	}
}

// NewResultCache creates a new cache. For maxCost <= 0
// nil (= disabled cache) is returned.
func NewResultCache(maxCost int64) (*ResultCache, error) {
	if maxCost <= 0 {
		return nil, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        10_000,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &ResultCache{cache: cache}, nil
}
