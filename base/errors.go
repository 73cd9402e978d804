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

import "github.com/juju/errors"

// All failures of the engine are local and recoverable. Callers are expected
// to match them with errors.Is and decide how to proceed, e.g. route an
// unknown customer to the cold-start recommender.
var (
	// ErrEmptyInput is returned when a dataset is built from zero interactions.
	ErrEmptyInput = errors.New("no interactions to build a dataset from")
	// ErrInvalidParameter is returned for out-of-range hyper-parameters or query options.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDimension is returned when the requested number of factors is
	// incompatible with the size of the dataset.
	ErrDimension = errors.New("incompatible latent dimension")
	// ErrUnknownCustomer is returned when a customer id is absent from the id maps.
	ErrUnknownCustomer = errors.New("unknown customer")
	// ErrUnknownProduct is returned when a product id is absent from the id maps.
	ErrUnknownProduct = errors.New("unknown product")
)
