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

// Package dataset builds the sparse customer×product confidence matrix from
// a raw transaction log. Memory is O(nonzeros): each matrix row is a slice
// of (index, confidence) pairs, kept in both customer-major and
// product-major orientation.
package dataset

import (
	"sort"

	"github.com/juju/errors"
	"github.com/reco-labs/crossrec/base"
	"github.com/samber/lo"
)

// DefaultAlpha is the confidence weight applied to raw interaction counts.
const DefaultAlpha float32 = 40

// Builder accumulates raw interactions and produces an immutable Dataset.
// Repeated (customer, product) pairs are aggregated by summation before the
// confidence transform is applied.
type Builder struct {
	alpha        float32
	customerDict *FreqDict
	productDict  *FreqDict
	counts       []map[int]float32 // raw counts by customer index
	attributes   map[int]string
}

// NewBuilder creates a Builder. alpha scales raw counts into confidence:
// C[u,i] = 1 + alpha*count[u,i]. Absent entries are confidence 1 with
// implicit preference 0, never missing data.
func NewBuilder(alpha float32) *Builder {
	return &Builder{
		alpha:        alpha,
		customerDict: NewFreqDict(),
		productDict:  NewFreqDict(),
		attributes:   make(map[int]string),
	}
}

// Add records one interaction. rawCount must be non-negative.
func (b *Builder) Add(customerId, productId string, rawCount float32) error {
	if rawCount < 0 {
		return errors.Annotatef(base.ErrInvalidParameter, "negative raw count %v for (%s, %s)",
			rawCount, customerId, productId)
	}
	customerIndex := b.customerDict.Id(customerId)
	productIndex := b.productDict.Id(productId)
	if customerIndex >= len(b.counts) {
		b.counts = append(b.counts, make(map[int]float32))
	}
	b.counts[customerIndex][productIndex] += rawCount
	return nil
}

// SetProductAttribute attaches a descriptive attribute (category, product
// line) to a product. Attributes are consumed only by the cold-start
// recommender. Products seen only here still receive an index, so catalog
// entries without sales history can surface in attribute filters.
func (b *Builder) SetProductAttribute(productId, attribute string) {
	b.attributes[b.productDict.NotCount(productId)] = attribute
}

// Build freezes the accumulated interactions into a Dataset. It fails with
// base.ErrEmptyInput when no interaction was added.
func (b *Builder) Build() (*Dataset, error) {
	if len(b.counts) == 0 {
		return nil, errors.Trace(base.ErrEmptyInput)
	}
	numCustomers := b.customerDict.Count()
	numProducts := b.productDict.Count()
	d := &Dataset{
		alpha:        b.alpha,
		customerDict: b.customerDict,
		productDict:  b.productDict,
		customerRows: make([][]lo.Tuple2[int32, float32], numCustomers),
		productRows:  make([][]lo.Tuple2[int32, float32], numProducts),
		popularity:   make([]float32, numProducts),
		attributes:   make([]string, numProducts),
	}
	for productIndex, attribute := range b.attributes {
		d.attributes[productIndex] = attribute
	}
	for customerIndex, row := range b.counts {
		for productIndex, rawCount := range row {
			confidence := 1 + b.alpha*rawCount
			d.customerRows[customerIndex] = append(d.customerRows[customerIndex],
				lo.Tuple2[int32, float32]{A: int32(productIndex), B: confidence})
			d.productRows[productIndex] = append(d.productRows[productIndex],
				lo.Tuple2[int32, float32]{A: int32(customerIndex), B: confidence})
			d.popularity[productIndex] += confidence
			d.numInteractions++
		}
	}
	// sort rows by index for deterministic iteration
	for _, rows := range [][][]lo.Tuple2[int32, float32]{d.customerRows, d.productRows} {
		for _, row := range rows {
			sort.Slice(row, func(i, j int) bool {
				return row[i].A < row[j].A
			})
		}
	}
	return d, nil
}

// Dataset is the immutable sparse confidence matrix plus the id maps built
// from one snapshot of interactions. It is the only input of training and
// the source of all aggregate statistics used by cold start.
type Dataset struct {
	alpha           float32
	customerDict    *FreqDict
	productDict     *FreqDict
	customerRows    [][]lo.Tuple2[int32, float32]
	productRows     [][]lo.Tuple2[int32, float32]
	popularity      []float32
	attributes      []string
	numInteractions int
}

func (d *Dataset) CountCustomers() int {
	return d.customerDict.Count()
}

func (d *Dataset) CountProducts() int {
	return d.productDict.Count()
}

func (d *Dataset) CountInteractions() int {
	return d.numInteractions
}

func (d *Dataset) Alpha() float32 {
	return d.alpha
}

// CustomerRows returns, per customer index, the (product index, confidence)
// pairs of that customer's matrix row, sorted by product index.
func (d *Dataset) CustomerRows() [][]lo.Tuple2[int32, float32] {
	return d.customerRows
}

// ProductRows returns the transposed orientation: per product index, the
// (customer index, confidence) pairs sorted by customer index.
func (d *Dataset) ProductRows() [][]lo.Tuple2[int32, float32] {
	return d.productRows
}

// Popularity returns the confidence-weighted interaction total per product.
func (d *Dataset) Popularity() []float32 {
	return d.popularity
}

// Attributes returns the attribute label per product index, empty when the
// product has none.
func (d *Dataset) Attributes() []string {
	return d.attributes
}

func (d *Dataset) CustomerDict() *FreqDict {
	return d.customerDict
}

func (d *Dataset) ProductDict() *FreqDict {
	return d.productDict
}
