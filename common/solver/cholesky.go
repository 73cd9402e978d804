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

// Package solver solves the small dense normal-equation systems produced by
// alternating least squares. The systems are symmetric positive definite
// k×k matrices where k is the number of latent factors, so a plain Cholesky
// factorization is sufficient and runs entirely in float32.
package solver

import (
	"github.com/chewxy/math32"
	"github.com/juju/errors"
)

// Cholesky factors the symmetric positive definite matrix a in place into
// its lower triangular factor L with a = L Lᵀ. Only the lower triangle of a
// is read. The regularization term added by the caller keeps the system
// positive definite even for all-zero rows.
func Cholesky(a [][]float32) error {
	n := len(a)
	for j := 0; j < n; j++ {
		d := a[j][j]
		for k := 0; k < j; k++ {
			d -= a[j][k] * a[j][k]
		}
		if d <= 0 {
			return errors.Errorf("matrix is not positive definite at pivot %d", j)
		}
		a[j][j] = math32.Sqrt(d)
		for i := j + 1; i < n; i++ {
			s := a[i][j]
			for k := 0; k < j; k++ {
				s -= a[i][k] * a[j][k]
			}
			a[i][j] = s / a[j][j]
		}
	}
	return nil
}

// SolveCholesky solves L Lᵀ x = b given the factor produced by Cholesky.
// The solution is written into x; b is left untouched.
func SolveCholesky(l [][]float32, b, x []float32) {
	n := len(l)
	// forward substitution: L y = b
	for i := 0; i < n; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= l[i][k] * x[k]
		}
		x[i] = s / l[i][i]
	}
	// backward substitution: Lᵀ x = y
	for i := n - 1; i >= 0; i-- {
		s := x[i]
		for k := i + 1; k < n; k++ {
			s -= l[k][i] * x[k]
		}
		x[i] = s / l[i][i]
	}
}

// Solve factors a in place and solves a x = b. It is the entry point used
// by the per-row solves of alternating least squares.
func Solve(a [][]float32, b, x []float32) error {
	if err := Cholesky(a); err != nil {
		return errors.Trace(err)
	}
	SolveCholesky(a, b, x)
	return nil
}
