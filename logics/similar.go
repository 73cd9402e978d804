// Copyright 2024 crossrec Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logics

import (
	"github.com/juju/errors"
	"github.com/reco-labs/crossrec/base"
	"github.com/reco-labs/crossrec/base/heap"
	"github.com/reco-labs/crossrec/common/floats"
	"github.com/reco-labs/crossrec/store"
)

// SimilarProducts ranks products by cosine similarity to the query product.
// The query itself is excluded. Products whose embedding is the zero vector
// carry no signal and are skipped; a zero-vector query returns an empty
// ranking.
func SimilarProducts(s *store.Snapshot, productId string, n int) ([]Result, error) {
	if n <= 0 {
		return nil, errors.Annotatef(base.ErrInvalidParameter, "topN must be positive, got %d", n)
	}
	queryIndex, err := s.ProductIndex(productId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	query := s.ProductFactor()[queryIndex]
	queryNorm := floats.Norm(query)
	if queryNorm == 0 {
		return []Result{}, nil
	}
	filter := heap.NewTopKFilter[int32, float32](n)
	for i, product := range s.ProductFactor() {
		if int32(i) == queryIndex {
			continue
		}
		norm := floats.Norm(product)
		if norm == 0 {
			continue
		}
		filter.Push(int32(i), floats.Dot(query, product)/(queryNorm*norm))
	}
	return collectProducts(s, filter), nil
}
