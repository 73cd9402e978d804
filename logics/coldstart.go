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
	"github.com/reco-labs/crossrec/store"
)

// PopularProducts ranks products by confidence-weighted popularity for
// customers without interaction history. Attributes restrict the ranking to
// products carrying any of them; an empty or unmatched filter falls back to
// overall popularity, so the service always returns a ranking on a
// non-empty catalog.
func PopularProducts(s *store.Snapshot, n int, attributes ...string) ([]Result, error) {
	if n <= 0 {
		return nil, errors.Annotatef(base.ErrInvalidParameter, "topN must be positive, got %d", n)
	}
	popularity := s.Popularity()
	wanted := mapset.NewSet[string]()
	for _, attribute := range attributes {
		if attribute != "" {
			wanted.Add(attribute)
		}
	}
	if wanted.Cardinality() > 0 {
		filter := heap.NewTopKFilter[int32, float32](n)
		matched := false
		for i, attribute := range s.Attributes() {
			if wanted.Contains(attribute) {
				matched = true
				filter.Push(int32(i), popularity[i])
			}
		}
		if matched {
			return collectProducts(s, filter), nil
		}
	}
	filter := heap.NewTopKFilter[int32, float32](n)
	for i, p := range popularity {
		filter.Push(int32(i), p)
	}
	return collectProducts(s, filter), nil
}
