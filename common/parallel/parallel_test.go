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

package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestParallel(t *testing.T) {
	for _, nWorkers := range []int{1, 4} {
		var count atomic.Int64
		touched := make([]bool, 1000)
		err := Parallel(context.Background(), len(touched), nWorkers, func(workerId, jobId int) error {
			touched[jobId] = true
			count.Add(1)
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(len(touched)), count.Load())
		for _, v := range touched {
			assert.True(t, v)
		}
	}
}

func TestParallelError(t *testing.T) {
	expected := errors.New("boom")
	err := Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		if jobId == 50 {
			return expected
		}
		return nil
	})
	assert.ErrorIs(t, err, expected)
}

func TestParallelCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parallel(ctx, 100, 4, func(workerId, jobId int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForEach(t *testing.T) {
	a := []int{1, 2, 3, 4, 5, 6, 7, 8}
	sum := make([]int64, len(a))
	ForEach(a, 4, func(i, v int) {
		sum[i] = int64(v * v)
	})
	assert.Equal(t, []int64{1, 4, 9, 16, 25, 36, 49, 64}, sum)
}

func TestSplit(t *testing.T) {
	a := []int{1, 2, 3, 4, 5}
	chunks := Split(a, 2)
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}}, chunks)
	assert.Nil(t, Split([]int{}, 3))
	assert.Len(t, Split(a, 10), 5)
}
