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
	"io"

	"github.com/juju/errors"
	"github.com/reco-labs/crossrec/base/encoding"
)

// FreqDict maps opaque identifiers to dense indices in first-seen order and
// counts identifier frequencies. Index assignment is deterministic: feeding
// the same identifiers in the same order always yields the same mapping.
type FreqDict struct {
	si  map[string]int
	is  []string
	cnt []int
}

func NewFreqDict() (d *FreqDict) {
	d = &FreqDict{map[string]int{}, []string{}, []int{}}
	return
}

func (d *FreqDict) Count() int {
	return len(d.is)
}

// Id returns the index of s, adding it to the dictionary if absent, and
// increments its frequency.
func (d *FreqDict) Id(s string) (y int) {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}

	y = len(d.is)
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return
}

// NotCount returns the index of s, adding it if absent, without touching
// its frequency.
func (d *FreqDict) NotCount(s string) (y int) {
	if y, ok := d.si[s]; ok {
		return y
	}

	y = len(d.is)
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 0)
	return
}

// Lookup returns the index of s without modifying the dictionary. Query
// services use it so that id maps stay immutable after construction.
func (d *FreqDict) Lookup(s string) (y int, ok bool) {
	y, ok = d.si[s]
	return
}

func (d *FreqDict) String(id int) (s string, ok bool) {
	if id < 0 || id >= len(d.is) {
		return "", false
	}
	return d.is[id], true
}

func (d *FreqDict) Freq(id int) int {
	if id < 0 || id >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}

// Marshal writes the dictionary to a byte stream.
func (d *FreqDict) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, int64(len(d.is))); err != nil {
		return errors.Trace(err)
	}
	for i, s := range d.is {
		if err := encoding.WriteString(w, s); err != nil {
			return errors.Trace(err)
		}
		if err := encoding.WriteGob(w, int64(d.cnt[i])); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Unmarshal reads the dictionary from a byte stream. Index order is
// preserved, so a round-tripped dictionary is identical to the original.
func (d *FreqDict) Unmarshal(r io.Reader) error {
	var count int64
	if err := encoding.ReadGob(r, &count); err != nil {
		return errors.Trace(err)
	}
	d.si = make(map[string]int, count)
	d.is = make([]string, 0, count)
	d.cnt = make([]int, 0, count)
	for i := int64(0); i < count; i++ {
		s, err := encoding.ReadString(r)
		if err != nil {
			return errors.Trace(err)
		}
		var freq int64
		if err := encoding.ReadGob(r, &freq); err != nil {
			return errors.Trace(err)
		}
		d.si[s] = len(d.is)
		d.is = append(d.is, s)
		d.cnt = append(d.cnt, int(freq))
	}
	return nil
}
