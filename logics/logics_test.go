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
	"context"
	"testing"

	"github.com/reco-labs/crossrec/base"
	"github.com/reco-labs/crossrec/dataset"
	"github.com/reco-labs/crossrec/model"
	"github.com/reco-labs/crossrec/model/mf"
	"github.com/reco-labs/crossrec/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the four-interaction example: C1 bought P1 and P2, C2 bought P1 and P3
func exampleSnapshot(t *testing.T) *store.Snapshot {
	builder := dataset.NewBuilder(2)
	require.NoError(t, builder.Add("C1", "P1", 3))
	require.NoError(t, builder.Add("C1", "P2", 1))
	require.NoError(t, builder.Add("C2", "P1", 5))
	require.NoError(t, builder.Add("C2", "P3", 2))
	trainSet, err := builder.Build()
	require.NoError(t, err)
	// two customers limit the latent dimension to one
	als := mf.NewALS(model.Params{model.NFactors: 1, model.NEpochs: 10, model.RandomState: 1})
	require.NoError(t, als.Fit(context.Background(), trainSet, mf.NewFitConfig()))
	return store.NewSnapshot(als, trainSet)
}

func ids(results []Result) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Id
	}
	return names
}

func assertSorted(t *testing.T, results []Result) {
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRecommend(t *testing.T) {
	snapshot := exampleSnapshot(t)
	// excluding known products leaves only P3 for C1
	results, err := Recommend(snapshot, "C1", 10, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"P3"}, ids(results))

	results, err = Recommend(snapshot, "C1", 10, false)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assertSorted(t, results)
	// P1 carries far more confidence for C1 than P2 and P3
	assert.Equal(t, "P1", results[0].Id)

	results, err = Recommend(snapshot, "C1", 2, false)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = Recommend(snapshot, "C42", 10, false)
	assert.ErrorIs(t, err, base.ErrUnknownCustomer)
	_, err = Recommend(snapshot, "C1", 0, false)
	assert.ErrorIs(t, err, base.ErrInvalidParameter)
}

func TestRecommendDeterminism(t *testing.T) {
	snapshot := exampleSnapshot(t)
	first, err := Recommend(snapshot, "C2", 3, false)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Recommend(snapshot, "C2", 3, false)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSimilarProducts(t *testing.T) {
	snapshot := exampleSnapshot(t)
	results, err := SimilarProducts(snapshot, "P2", 10)
	require.NoError(t, err)
	// the query never appears in its own neighborhood
	assert.NotContains(t, ids(results), "P2")
	assert.Len(t, results, 2)
	assertSorted(t, results)
	// cosine scores are bounded
	for _, r := range results {
		assert.LessOrEqual(t, r.Score, float32(1.0001))
		assert.GreaterOrEqual(t, r.Score, float32(-1.0001))
	}

	_, err = SimilarProducts(snapshot, "P42", 10)
	assert.ErrorIs(t, err, base.ErrUnknownProduct)
	_, err = SimilarProducts(snapshot, "P1", -1)
	assert.ErrorIs(t, err, base.ErrInvalidParameter)
}

func TestSimilarProductsZeroVector(t *testing.T) {
	builder := dataset.NewBuilder(1)
	require.NoError(t, builder.Add("C1", "P1", 1))
	require.NoError(t, builder.Add("C2", "P2", 1))
	// P9 has no interactions, so its embedding is the zero vector
	builder.SetProductAttribute("P9", "misc")
	trainSet, err := builder.Build()
	require.NoError(t, err)
	als := mf.NewALS(model.Params{model.NFactors: 1, model.NEpochs: 3})
	require.NoError(t, als.Fit(context.Background(), trainSet, mf.NewFitConfig()))
	snapshot := store.NewSnapshot(als, trainSet)

	results, err := SimilarProducts(snapshot, "P9", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = SimilarProducts(snapshot, "P1", 10)
	require.NoError(t, err)
	assert.NotContains(t, ids(results), "P9")
}

func TestSimilarProductsSymmetry(t *testing.T) {
	snapshot := exampleSnapshot(t)
	score := func(query, neighbor string) float32 {
		results, err := SimilarProducts(snapshot, query, 10)
		require.NoError(t, err)
		for _, r := range results {
			if r.Id == neighbor {
				return r.Score
			}
		}
		t.Fatalf("%s not in the neighborhood of %s", neighbor, query)
		return 0
	}
	assert.InDelta(t, score("P1", "P2"), score("P2", "P1"), 1e-5)
	assert.InDelta(t, score("P1", "P3"), score("P3", "P1"), 1e-5)
}

func TestPopularProducts(t *testing.T) {
	builder := dataset.NewBuilder(2)
	require.NoError(t, builder.Add("C1", "P1", 3))
	require.NoError(t, builder.Add("C1", "P2", 1))
	require.NoError(t, builder.Add("C2", "P1", 5))
	require.NoError(t, builder.Add("C2", "P3", 2))
	builder.SetProductAttribute("P1", "tools")
	builder.SetProductAttribute("P2", "garden")
	builder.SetProductAttribute("P3", "garden")
	trainSet, err := builder.Build()
	require.NoError(t, err)
	als := mf.NewALS(model.Params{model.NFactors: 1, model.NEpochs: 3})
	require.NoError(t, als.Fit(context.Background(), trainSet, mf.NewFitConfig()))
	snapshot := store.NewSnapshot(als, trainSet)

	// P1 accumulates (1+2*3)+(1+2*5) = 18, P3 gets 5, P2 gets 3
	results, err := PopularProducts(snapshot, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P3", "P2"}, ids(results))

	results, err = PopularProducts(snapshot, 10, "garden")
	require.NoError(t, err)
	assert.Equal(t, []string{"P3", "P2"}, ids(results))

	results, err = PopularProducts(snapshot, 10, "garden", "tools")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P3", "P2"}, ids(results))

	// an unmatched attribute falls back to overall popularity
	results, err = PopularProducts(snapshot, 2, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P3"}, ids(results))

	_, err = PopularProducts(snapshot, 0)
	assert.ErrorIs(t, err, base.ErrInvalidParameter)
}

func TestTargetCustomers(t *testing.T) {
	snapshot := exampleSnapshot(t)
	// existing buyers stay in the ranking by default
	results, err := TargetCustomers(snapshot, "P1", 10, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C1", "C2"}, ids(results))
	assertSorted(t, results)

	// P2 was bought by C1 only
	results, err = TargetCustomers(snapshot, "P2", 10, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"C2"}, ids(results))

	_, err = TargetCustomers(snapshot, "P42", 10, false)
	assert.ErrorIs(t, err, base.ErrUnknownProduct)
	_, err = TargetCustomers(snapshot, "P1", 0, false)
	assert.ErrorIs(t, err, base.ErrInvalidParameter)
}
