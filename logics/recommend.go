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

// Package logics implements the query services running on top of a trained
// snapshot: personalized recommendation, product similarity, cold start and
// customer targeting. All services are read-only and safe for concurrent use.
package logics

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/reco-labs/crossrec/base"
	"github.com/reco-labs/crossrec/base/heap"
	"github.com/reco-labs/crossrec/common/floats"
	"github.com/reco-labs/crossrec/store"
)

// Result is one scored entry of a ranking. Rankings are ordered by
// decreasing score, ties broken by ascending dense index, so repeated
// queries against the same snapshot return identical lists.
type Result struct {
	Id    string
	Score float32
}

// Recommend ranks products for one customer by the dot product between the
// customer embedding and every product embedding. When excludeKnown is set,
// products the customer already interacted with are left out.
func Recommend(s *store.Snapshot, customerId string, n int, excludeKnown bool) ([]Result, error) {
	if n <= 0 {
		return nil, errors.Annotatef(base.ErrInvalidParameter, "topN must be positive, got %d", n)
	}
	customerIndex, err := s.CustomerIndex(customerId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	customer := s.CustomerFactor()[customerIndex]
	excluded := mapset.NewSet[int32]()
	if excludeKnown {
		excluded.Append(s.KnownProducts(customerIndex)...)
	}
	filter := heap.NewTopKFilter[int32, float32](n)
	for i, product := range s.ProductFactor() {
		if excluded.Contains(int32(i)) {
			continue
		}
		filter.Push(int32(i), floats.Dot(customer, product))
	}
	return collectProducts(s, filter), nil
}

func collectProducts(s *store.Snapshot, filter *heap.TopKFilter[int32, float32]) []Result {
	indices, scores := filter.PopAll()
	results := make([]Result, len(indices))
	for i, index := range indices {
		results[i] = Result{Id: s.ProductId(index), Score: scores[i]}
	}
	return results
}
