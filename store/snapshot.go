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

// Package store holds the trained embedding snapshot shared by all query
// services. A Snapshot is immutable after construction, so any number of
// concurrent readers may query it without coordination. Retraining builds a
// new Snapshot and swaps it into the Holder atomically: readers observe
// either the old or the new artifact in full, never a mix.
package store

import (
	"encoding/binary"
	"io"

	"github.com/juju/errors"
	"github.com/reco-labs/crossrec/base"
	"github.com/reco-labs/crossrec/base/encoding"
	"github.com/reco-labs/crossrec/dataset"
	"github.com/reco-labs/crossrec/model/mf"
	"go.uber.org/atomic"
)

// Snapshot is the artifact produced by one training run: the latent factor
// matrices, the id maps, the recorded interaction index lists, and the
// aggregate statistics consumed by cold start.
type Snapshot struct {
	customerDict   *dataset.FreqDict
	productDict    *dataset.FreqDict
	customerFactor [][]float32
	productFactor  [][]float32
	knownProducts  [][]int32
	knownCustomers [][]int32
	popularity     []float32
	attributes     []string
	nFactors       int
}

// NewSnapshot assembles a snapshot from a trained model and the dataset it
// was trained on.
func NewSnapshot(als *mf.ALS, d *dataset.Dataset) *Snapshot {
	s := &Snapshot{
		customerDict:   d.CustomerDict(),
		productDict:    d.ProductDict(),
		customerFactor: als.CustomerFactor,
		productFactor:  als.ProductFactor,
		knownProducts:  make([][]int32, d.CountCustomers()),
		knownCustomers: make([][]int32, d.CountProducts()),
		popularity:     d.Popularity(),
		attributes:     d.Attributes(),
	}
	if len(s.customerFactor) > 0 {
		s.nFactors = len(s.customerFactor[0])
	}
	for customerIndex, row := range d.CustomerRows() {
		indices := make([]int32, 0, len(row))
		for _, t := range row {
			indices = append(indices, t.A)
		}
		s.knownProducts[customerIndex] = indices
	}
	for productIndex, row := range d.ProductRows() {
		indices := make([]int32, 0, len(row))
		for _, t := range row {
			indices = append(indices, t.A)
		}
		s.knownCustomers[productIndex] = indices
	}
	return s
}

func (s *Snapshot) CountCustomers() int {
	return s.customerDict.Count()
}

func (s *Snapshot) CountProducts() int {
	return s.productDict.Count()
}

func (s *Snapshot) NumFactors() int {
	return s.nFactors
}

// CustomerIndex resolves a customer id to its dense index.
func (s *Snapshot) CustomerIndex(customerId string) (int32, error) {
	index, ok := s.customerDict.Lookup(customerId)
	if !ok {
		return 0, errors.Annotatef(base.ErrUnknownCustomer, "%q", customerId)
	}
	return int32(index), nil
}

// ProductIndex resolves a product id to its dense index.
func (s *Snapshot) ProductIndex(productId string) (int32, error) {
	index, ok := s.productDict.Lookup(productId)
	if !ok {
		return 0, errors.Annotatef(base.ErrUnknownProduct, "%q", productId)
	}
	return int32(index), nil
}

// CustomerId resolves a dense index back to the customer id.
func (s *Snapshot) CustomerId(customerIndex int32) string {
	id, _ := s.customerDict.String(int(customerIndex))
	return id
}

// ProductId resolves a dense index back to the product id.
func (s *Snapshot) ProductId(productIndex int32) string {
	id, _ := s.productDict.String(int(productIndex))
	return id
}

// CustomerVector returns the latent embedding of a customer.
func (s *Snapshot) CustomerVector(customerId string) ([]float32, error) {
	index, err := s.CustomerIndex(customerId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.customerFactor[index], nil
}

// ProductVector returns the latent embedding of a product.
func (s *Snapshot) ProductVector(productId string) ([]float32, error) {
	index, err := s.ProductIndex(productId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.productFactor[index], nil
}

// CustomerFactor returns all customer embeddings, indexed densely.
func (s *Snapshot) CustomerFactor() [][]float32 {
	return s.customerFactor
}

// ProductFactor returns all product embeddings, indexed densely.
func (s *Snapshot) ProductFactor() [][]float32 {
	return s.productFactor
}

// KnownProducts returns the sorted product indices the customer has
// interacted with.
func (s *Snapshot) KnownProducts(customerIndex int32) []int32 {
	return s.knownProducts[customerIndex]
}

// KnownCustomers returns the sorted customer indices that interacted with
// the product.
func (s *Snapshot) KnownCustomers(productIndex int32) []int32 {
	return s.knownCustomers[productIndex]
}

// Popularity returns the confidence-weighted interaction total per product.
func (s *Snapshot) Popularity() []float32 {
	return s.popularity
}

// Attributes returns the attribute label per product index.
func (s *Snapshot) Attributes() []string {
	return s.attributes
}

// Marshal writes the snapshot to a byte stream.
func (s *Snapshot) Marshal(w io.Writer) error {
	if err := s.customerDict.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := s.productDict.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, int64(s.nFactors)); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, s.customerFactor); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, s.productFactor); err != nil {
		return errors.Trace(err)
	}
	if err := writeIndexLists(w, s.knownProducts); err != nil {
		return errors.Trace(err)
	}
	if err := writeIndexLists(w, s.knownCustomers); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, s.popularity); err != nil {
		return errors.Trace(err)
	}
	for _, attribute := range s.attributes {
		if err := encoding.WriteString(w, attribute); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Unmarshal reads a snapshot from a byte stream. Round-tripping reproduces
// identical vectors and mappings.
func Unmarshal(r io.Reader) (*Snapshot, error) {
	s := new(Snapshot)
	s.customerDict = dataset.NewFreqDict()
	if err := s.customerDict.Unmarshal(r); err != nil {
		return nil, errors.Trace(err)
	}
	s.productDict = dataset.NewFreqDict()
	if err := s.productDict.Unmarshal(r); err != nil {
		return nil, errors.Trace(err)
	}
	var nFactors int64
	if err := binary.Read(r, binary.LittleEndian, &nFactors); err != nil {
		return nil, errors.Trace(err)
	}
	s.nFactors = int(nFactors)
	s.customerFactor = newMatrix(s.customerDict.Count(), s.nFactors)
	if err := encoding.ReadMatrix(r, s.customerFactor); err != nil {
		return nil, errors.Trace(err)
	}
	s.productFactor = newMatrix(s.productDict.Count(), s.nFactors)
	if err := encoding.ReadMatrix(r, s.productFactor); err != nil {
		return nil, errors.Trace(err)
	}
	var err error
	if s.knownProducts, err = readIndexLists(r, s.customerDict.Count()); err != nil {
		return nil, errors.Trace(err)
	}
	if s.knownCustomers, err = readIndexLists(r, s.productDict.Count()); err != nil {
		return nil, errors.Trace(err)
	}
	s.popularity = make([]float32, s.productDict.Count())
	if err := binary.Read(r, binary.LittleEndian, s.popularity); err != nil {
		return nil, errors.Trace(err)
	}
	s.attributes = make([]string, s.productDict.Count())
	for i := range s.attributes {
		if s.attributes[i], err = encoding.ReadString(r); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return s, nil
}

func writeIndexLists(w io.Writer, lists [][]int32) error {
	for _, list := range lists {
		if err := binary.Write(w, binary.LittleEndian, int64(len(list))); err != nil {
			return errors.Trace(err)
		}
		if err := binary.Write(w, binary.LittleEndian, list); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func readIndexLists(r io.Reader, count int) ([][]int32, error) {
	lists := make([][]int32, count)
	for i := range lists {
		var length int64
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, errors.Trace(err)
		}
		lists[i] = make([]int32, length)
		if err := binary.Read(r, binary.LittleEndian, lists[i]); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return lists, nil
}

func newMatrix(row, col int) [][]float32 {
	ret := make([][]float32, row)
	for i := range ret {
		ret[i] = make([]float32, col)
	}
	return ret
}

// Holder publishes the active snapshot to concurrent readers. Swap is
// atomic: a reader never observes a partially replaced snapshot.
type Holder struct {
	current *atomic.Pointer[Snapshot]
}

// NewHolder creates a Holder, optionally seeded with a snapshot.
func NewHolder(s *Snapshot) *Holder {
	return &Holder{current: atomic.NewPointer(s)}
}

// Load returns the active snapshot, or nil before the first Swap.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Swap replaces the active snapshot and returns the previous one.
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	return h.current.Swap(s)
}
