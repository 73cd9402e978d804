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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/reco-labs/crossrec/base"
	"github.com/reco-labs/crossrec/base/heap"
	"github.com/reco-labs/crossrec/common/floats"
	"github.com/reco-labs/crossrec/store"
)

// TargetCustomers ranks customers by affinity to one product, the transpose
// of Recommend. Existing buyers are kept in the ranking unless excludeKnown
// is set: a high-affinity past buyer is usually a re-engagement target, not
// noise.
func TargetCustomers(s *store.Snapshot, productId string, n int, excludeKnown bool) ([]Result, error) {
	if n <= 0 {
		return nil, errors.Annotatef(base.ErrInvalidParameter, "topN must be positive, got %d", n)
	}
	productIndex, err := s.ProductIndex(productId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	product := s.ProductFactor()[productIndex]
	excluded := mapset.NewSet[int32]()
	if excludeKnown {
		excluded.Append(s.KnownCustomers(productIndex)...)
	}
	filter := heap.NewTopKFilter[int32, float32](n)
	for i, customer := range s.CustomerFactor() {
		if excluded.Contains(int32(i)) {
			continue
		}
		filter.Push(int32(i), floats.Dot(customer, product))
	}
	indices, scores := filter.PopAll()
	results := make([]Result, len(indices))
	for i, index := range indices {
		results[i] = Result{Id: s.CustomerId(index), Score: scores[i]}
	}
	return results, nil
}
