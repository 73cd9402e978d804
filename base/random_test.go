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

package base

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func TestRandomGeneratorDeterminism(t *testing.T) {
	a := NewRandomGenerator(42).NormalMatrix(4, 8, 0, 0.1)
	b := NewRandomGenerator(42).NormalMatrix(4, 8, 0, 0.1)
	assert.Equal(t, a, b)
	c := NewRandomGenerator(43).NormalMatrix(4, 8, 0, 0.1)
	assert.NotEqual(t, a, c)
}

func TestUniformVector(t *testing.T) {
	vec := NewRandomGenerator(0).UniformVector(1000, -1, 1)
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
	}
}

func TestSampleInt32(t *testing.T) {
	rng := NewRandomGenerator(0)
	exclude := mapset.NewSet[int32](0, 1, 2)
	sampled := rng.SampleInt32(0, 10, 5, exclude)
	assert.Len(t, sampled, 5)
	for _, v := range sampled {
		assert.False(t, exclude.Contains(v))
	}
	// more requested than available returns the whole interval
	sampled = rng.SampleInt32(0, 5, 10, exclude)
	assert.ElementsMatch(t, []int32{3, 4}, sampled)
}
