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

package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreqDict(t *testing.T) {
	d := NewFreqDict()
	assert.Equal(t, 0, d.Id("a"))
	assert.Equal(t, 1, d.Id("b"))
	assert.Equal(t, 0, d.Id("a"))
	assert.Equal(t, 2, d.Count())
	assert.Equal(t, 2, d.Freq(0))
	assert.Equal(t, 1, d.Freq(1))
	s, ok := d.String(0)
	assert.True(t, ok)
	assert.Equal(t, "a", s)
	_, ok = d.String(5)
	assert.False(t, ok)
}

func TestFreqDictLookup(t *testing.T) {
	d := NewFreqDict()
	d.Id("a")
	index, ok := d.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 0, index)
	_, ok = d.Lookup("missing")
	assert.False(t, ok)
	// lookup never adds
	assert.Equal(t, 1, d.Count())
	assert.Equal(t, 1, d.Freq(0))
}

func TestFreqDictNotCount(t *testing.T) {
	d := NewFreqDict()
	assert.Equal(t, 0, d.NotCount("a"))
	assert.Equal(t, 0, d.Freq(0))
	assert.Equal(t, 0, d.Id("a"))
	assert.Equal(t, 1, d.Freq(0))
}

func TestFreqDictMarshal(t *testing.T) {
	d := NewFreqDict()
	d.Id("a")
	d.Id("b")
	d.Id("b")
	d.NotCount("c")
	buf := bytes.NewBuffer(nil)
	require.NoError(t, d.Marshal(buf))
	decoded := NewFreqDict()
	require.NoError(t, decoded.Unmarshal(buf))
	assert.Equal(t, d, decoded)
}
