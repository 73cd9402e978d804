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

// Package mf implements matrix factorization over implicit feedback. The
// trainer is alternating least squares with confidence weighting: each
// half-iteration holds one factor matrix fixed and solves the regularized
// weighted normal equations for every row of the other, using the sparse
// structure of the confidence matrix so the per-row cost is proportional to
// the row's nonzero count.
package mf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"github.com/reco-labs/crossrec/base"
	"github.com/reco-labs/crossrec/base/encoding"
	"github.com/reco-labs/crossrec/base/log"
	"github.com/reco-labs/crossrec/base/progress"
	"github.com/reco-labs/crossrec/common/floats"
	"github.com/reco-labs/crossrec/common/parallel"
	"github.com/reco-labs/crossrec/common/solver"
	"github.com/reco-labs/crossrec/dataset"
	"github.com/reco-labs/crossrec/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// FitConfig carries training options that are not hyper-parameters.
type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 5,
	}
}

// SetJobs sets the number of row-solve workers. Values below one fall back
// to serial training.
func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = max(jobs, 1)
	return config
}

// SetVerbose sets the logging period in epochs. Zero silences the per-epoch
// progress logs except the final one.
func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

// ALS is the implicit-feedback alternating least squares model.
//
// Hyper-parameters:
//
//	NFactors    - The number of latent factors. Default is 32.
//	NEpochs     - The number of alternating iterations. Default is 15.
//	Reg         - The regularization strength. Default is 0.01.
//	InitMean    - The mean of initial random latent factors. Default is 0.
//	InitStdDev  - The standard deviation of initial random latent factors. Default is 0.01.
//	RandomState - The random seed. Default is 0.
//
// Scores are X[u]·Y[i]: meaningful for ranking products within one
// customer, not comparable across customers.
type ALS struct {
	model.BaseModel
	CustomerDict        *dataset.FreqDict
	ProductDict         *dataset.FreqDict
	CustomerPredictable *bitset.BitSet
	ProductPredictable  *bitset.BitSet
	// Model parameters
	CustomerFactor [][]float32 // x_u
	ProductFactor  [][]float32 // y_i
	// Hyper parameters
	nFactors   int
	nEpochs    int
	reg        float32
	initMean   float32
	initStdDev float32
}

// NewALS creates an ALS model.
func NewALS(params model.Params) *ALS {
	als := new(ALS)
	als.SetParams(params)
	return als
}

// SetParams sets hyper-parameters for the ALS model.
func (als *ALS) SetParams(params model.Params) {
	als.BaseModel.SetParams(params)
	als.nFactors = als.Params.GetInt(model.NFactors, 32)
	als.nEpochs = als.Params.GetInt(model.NEpochs, 15)
	als.reg = als.Params.GetFloat32(model.Reg, 0.01)
	als.initMean = als.Params.GetFloat32(model.InitMean, 0)
	als.initStdDev = als.Params.GetFloat32(model.InitStdDev, 0.01)
}

// Clear drops model weights.
func (als *ALS) Clear() {
	als.CustomerDict = nil
	als.ProductDict = nil
	als.CustomerFactor = nil
	als.ProductFactor = nil
}

// Invalid reports whether the model has no trained weights.
func (als *ALS) Invalid() bool {
	return als == nil ||
		als.CustomerDict == nil ||
		als.ProductDict == nil ||
		als.CustomerFactor == nil ||
		als.ProductFactor == nil
}

func (als *ALS) validate(trainSet *dataset.Dataset) error {
	if als.nFactors <= 0 {
		return errors.Annotatef(base.ErrInvalidParameter, "NFactors = %d", als.nFactors)
	}
	if als.nEpochs <= 0 {
		return errors.Annotatef(base.ErrInvalidParameter, "NEpochs = %d", als.nEpochs)
	}
	if als.reg < 0 {
		return errors.Annotatef(base.ErrInvalidParameter, "Reg = %v", als.reg)
	}
	if smaller := min(trainSet.CountCustomers(), trainSet.CountProducts()); als.nFactors >= smaller {
		return errors.Annotatef(base.ErrDimension,
			"NFactors = %d with %d customers and %d products",
			als.nFactors, trainSet.CountCustomers(), trainSet.CountProducts())
	}
	return nil
}

// Init initializes factors from the seeded random generator and marks the
// rows that have feedback. Initialization is deterministic for a fixed
// RandomState.
func (als *ALS) Init(trainSet *dataset.Dataset) {
	als.CustomerFactor = als.GetRandomGenerator().NormalMatrix(
		trainSet.CountCustomers(), als.nFactors, als.initMean, als.initStdDev)
	als.ProductFactor = als.GetRandomGenerator().NormalMatrix(
		trainSet.CountProducts(), als.nFactors, als.initMean, als.initStdDev)
	als.CustomerDict = trainSet.CustomerDict()
	als.ProductDict = trainSet.ProductDict()
	als.CustomerPredictable = bitset.New(uint(trainSet.CountCustomers()))
	for customerIndex := 0; customerIndex < trainSet.CountCustomers(); customerIndex++ {
		if len(trainSet.CustomerRows()[customerIndex]) > 0 {
			als.CustomerPredictable.Set(uint(customerIndex))
		}
	}
	als.ProductPredictable = bitset.New(uint(trainSet.CountProducts()))
	for productIndex := 0; productIndex < trainSet.CountProducts(); productIndex++ {
		if len(trainSet.ProductRows()[productIndex]) > 0 {
			als.ProductPredictable.Set(uint(productIndex))
		}
	}
}

// Fit trains the ALS model. The two half-steps of one iteration run behind
// a barrier: the customer solve reads the latest product factors and vice
// versa. Row solves inside one half-step are independent and run on
// config.Jobs workers; the result is identical for any job count. Iteration
// boundaries are the only cancellation points: a cancelled ctx aborts
// before the next half-step and Fit returns the context error.
func (als *ALS) Fit(ctx context.Context, trainSet *dataset.Dataset, config *FitConfig) error {
	if err := als.validate(trainSet); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit als",
		zap.Int("customers", trainSet.CountCustomers()),
		zap.Int("products", trainSet.CountProducts()),
		zap.Int("interactions", trainSet.CountInteractions()),
		zap.Any("params", als.GetParams()),
		zap.Any("config", config))
	als.Init(trainSet)
	// Create per-worker buffers for the k×k normal equations. The worker
	// count is clamped so a zero-valued FitConfig trains serially.
	jobs := max(config.Jobs, 1)
	gram := newMatrix(als.nFactors, als.nFactors)
	a := make([][][]float32, jobs)
	b := make([][]float32, jobs)
	for i := 0; i < jobs; i++ {
		a[i] = newMatrix(als.nFactors, als.nFactors)
		b[i] = make([]float32, als.nFactors)
	}
	newCtx, span := progress.Start(ctx, "ALS.Fit", als.nEpochs)
	for epoch := 1; epoch <= als.nEpochs; epoch++ {
		fitStart := time.Now()
		// Solve for customer factors with product factors fixed.
		als.gramMatrix(gram, als.ProductFactor)
		err := parallel.Parallel(newCtx, trainSet.CountCustomers(), jobs, func(workerId, customerIndex int) error {
			return als.solveRow(gram, a[workerId], b[workerId],
				trainSet.CustomerRows()[customerIndex], als.ProductFactor, als.CustomerFactor[customerIndex])
		})
		if err != nil {
			span.Fail(err)
			return errors.Trace(err)
		}
		// Solve for product factors with customer factors fixed.
		als.gramMatrix(gram, als.CustomerFactor)
		err = parallel.Parallel(newCtx, trainSet.CountProducts(), jobs, func(workerId, productIndex int) error {
			return als.solveRow(gram, a[workerId], b[workerId],
				trainSet.ProductRows()[productIndex], als.CustomerFactor, als.ProductFactor[productIndex])
		})
		if err != nil {
			span.Fail(err)
			return errors.Trace(err)
		}
		span.Add(1)
		if (config.Verbose > 0 && epoch%config.Verbose == 0) || epoch == als.nEpochs {
			log.Logger().Info(fmt.Sprintf("fit als %v/%v", epoch, als.nEpochs),
				zap.String("fit_time", time.Since(fitStart).String()),
				zap.Float32("observed_loss", als.observedLoss(trainSet)))
		}
	}
	span.End()
	return nil
}

// gramMatrix computes dst = FᵀF over all rows of the factor matrix. The
// absent entries of the confidence matrix all carry confidence 1, so the
// Gram matrix accounts for every product (or customer) at once and the
// per-row solve only corrects for the row's nonzeros.
func (als *ALS) gramMatrix(dst [][]float32, factor [][]float32) {
	floats.MatZero(dst)
	for _, row := range factor {
		for i := 0; i < als.nFactors; i++ {
			floats.MulConstAdd(row, row[i], dst[i])
		}
	}
}

// solveRow solves one row of the normal equations
//
//	(FᵀF + Fᵀ(C_r−I)F + reg·I) x = Fᵀ C_r p_r
//
// where F is the fixed factor matrix and C_r the diagonal of the row's
// confidences. Only the row's nonzeros are touched. A row without
// interactions keeps a zero right-hand side and collapses to the zero
// vector under regularization.
func (als *ALS) solveRow(gram [][]float32, a [][]float32, b []float32,
	row []lo.Tuple2[int32, float32], factor [][]float32, x []float32) error {
	for i := 0; i < als.nFactors; i++ {
		copy(a[i], gram[i])
		a[i][i] += als.reg
	}
	floats.Zero(b)
	for _, t := range row {
		vec := factor[t.A]
		confidence := t.B
		for i := 0; i < als.nFactors; i++ {
			floats.MulConstAdd(vec, (confidence-1)*vec[i], a[i])
		}
		floats.MulConstAdd(vec, confidence, b)
	}
	return errors.Trace(solver.Solve(a, b, x))
}

// observedLoss is the confidence-weighted squared error over observed
// entries plus the regularization term. Tracking the full implicit loss
// would cost O(customers×products); the observed part is enough to watch
// convergence in logs.
func (als *ALS) observedLoss(trainSet *dataset.Dataset) float32 {
	var cost float32
	for customerIndex, row := range trainSet.CustomerRows() {
		for _, t := range row {
			pred := als.internalPredict(int32(customerIndex), t.A)
			cost += t.B * (1 - pred) * (1 - pred)
		}
	}
	for _, vec := range als.CustomerFactor {
		norm := floats.Norm(vec)
		cost += als.reg * norm * norm
	}
	for _, vec := range als.ProductFactor {
		norm := floats.Norm(vec)
		cost += als.reg * norm * norm
	}
	return cost
}

// Predict returns the preference score of a customer for a product.
func (als *ALS) Predict(customerId, productId string) float32 {
	customerIndex, okCustomer := als.CustomerDict.Lookup(customerId)
	productIndex, okProduct := als.ProductDict.Lookup(productId)
	if !okCustomer {
		log.Logger().Warn("unknown customer", zap.String("customer_id", customerId))
		return 0
	}
	if !okProduct {
		log.Logger().Warn("unknown product", zap.String("product_id", productId))
		return 0
	}
	return als.internalPredict(int32(customerIndex), int32(productIndex))
}

func (als *ALS) internalPredict(customerIndex, productIndex int32) float32 {
	return floats.Dot(als.CustomerFactor[customerIndex], als.ProductFactor[productIndex])
}

// GetCustomerFactor returns the latent factor of a customer.
func (als *ALS) GetCustomerFactor(customerIndex int32) []float32 {
	return als.CustomerFactor[customerIndex]
}

// GetProductFactor returns the latent factor of a product.
func (als *ALS) GetProductFactor(productIndex int32) []float32 {
	return als.ProductFactor[productIndex]
}

// IsCustomerPredictable returns false if the customer has no feedback and
// its embedding was never trained.
func (als *ALS) IsCustomerPredictable(customerIndex int32) bool {
	if customerIndex < 0 || int(customerIndex) >= als.CustomerDict.Count() {
		return false
	}
	return als.CustomerPredictable.Test(uint(customerIndex))
}

// IsProductPredictable returns false if the product has no feedback and its
// embedding was never trained.
func (als *ALS) IsProductPredictable(productIndex int32) bool {
	if productIndex < 0 || int(productIndex) >= als.ProductDict.Count() {
		return false
	}
	return als.ProductPredictable.Test(uint(productIndex))
}

// Marshal writes the model to a byte stream.
func (als *ALS) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, als.Params); err != nil {
		return errors.Trace(err)
	}
	if err := als.CustomerDict.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := als.ProductDict.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, als.CustomerFactor); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, als.ProductFactor); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Unmarshal reads the model from a byte stream. The predictable flags are
// rebuilt from the id map frequencies, which count one per interaction.
func (als *ALS) Unmarshal(r io.Reader) error {
	var params model.Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	als.SetParams(params)
	als.CustomerDict = dataset.NewFreqDict()
	if err := als.CustomerDict.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	als.ProductDict = dataset.NewFreqDict()
	if err := als.ProductDict.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	als.CustomerFactor = newMatrix(als.CustomerDict.Count(), als.nFactors)
	if err := encoding.ReadMatrix(r, als.CustomerFactor); err != nil {
		return errors.Trace(err)
	}
	als.ProductFactor = newMatrix(als.ProductDict.Count(), als.nFactors)
	if err := encoding.ReadMatrix(r, als.ProductFactor); err != nil {
		return errors.Trace(err)
	}
	als.CustomerPredictable = bitset.New(uint(als.CustomerDict.Count()))
	for customerIndex := 0; customerIndex < als.CustomerDict.Count(); customerIndex++ {
		if als.CustomerDict.Freq(customerIndex) > 0 {
			als.CustomerPredictable.Set(uint(customerIndex))
		}
	}
	als.ProductPredictable = bitset.New(uint(als.ProductDict.Count()))
	for productIndex := 0; productIndex < als.ProductDict.Count(); productIndex++ {
		if als.ProductDict.Freq(productIndex) > 0 {
			als.ProductPredictable.Set(uint(productIndex))
		}
	}
	return nil
}

func newMatrix(row, col int) [][]float32 {
	ret := make([][]float32, row)
	for i := range ret {
		ret[i] = make([]float32, col)
	}
	return ret
}
