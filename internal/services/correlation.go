package services

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// minEigenvalue is the floor applied to eigenvalues when repairing a
// correlation matrix that is not positive semi-definite.
const minEigenvalue = 1e-8

// RepairCorrelation returns a symmetric positive semi-definite version
// of the given correlation matrix with a unit diagonal. Matrices that
// are already PSD pass through unchanged (up to symmetrization).
//
// The repair shifts any eigenvalue below the floor up to the floor,
// reconstructs the matrix from the adjusted spectrum and rescales it
// back to unit diagonal.
func RepairCorrelation(corr [][]float64) *mat.SymDense {
	n := len(corr)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// Average the two triangles in case the input drifted
			// slightly from symmetric.
			sym.SetSym(i, j, (corr[i][j]+corr[j][i])/2)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		// Eigendecomposition of a symmetric matrix should not fail;
		// if it does, the identity is the only safe answer.
		return identityCorrelation(n)
	}

	vals := eig.Values(nil)
	negative := false
	for _, v := range vals {
		if v < minEigenvalue {
			negative = true
			break
		}
	}
	if !negative {
		return sym
	}

	for i, v := range vals {
		if v < minEigenvalue {
			vals[i] = minEigenvalue
		}
	}

	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Q * diag(vals) * Q^T
	scaled := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			scaled.Set(i, j, vecs.At(i, j)*vals[j])
		}
	}
	var repairedDense mat.Dense
	repairedDense.Mul(scaled, vecs.T())

	// Rescale to unit diagonal so it stays a correlation matrix.
	repaired := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := math.Sqrt(repairedDense.At(i, i) * repairedDense.At(j, j))
			if d <= 0 {
				if i == j {
					repaired.SetSym(i, j, 1.0)
				} else {
					repaired.SetSym(i, j, 0.0)
				}
				continue
			}
			repaired.SetSym(i, j, repairedDense.At(i, j)/d)
		}
	}
	return repaired
}

// CholeskyFactor factors the repaired correlation matrix and returns
// its lower-triangular factor. If factorization fails even after the
// repair, the identity is returned and the zones are treated as
// uncorrelated; that is a degraded-but-safe fallback, never an error.
func CholeskyFactor(corr [][]float64, logger *logrus.Logger) *mat.TriDense {
	n := len(corr)
	if n == 0 {
		return nil
	}

	repaired := RepairCorrelation(corr)

	var chol mat.Cholesky
	if !chol.Factorize(repaired) {
		if logger != nil {
			logger.Warn("correlation matrix not factorable after repair, falling back to uncorrelated zones")
		}
		return identityFactor(n)
	}

	var l mat.TriDense
	chol.LTo(&l)
	return &l
}

func identityCorrelation(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1.0)
	}
	return m
}

func identityFactor(n int) *mat.TriDense {
	l := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		l.SetTri(i, i, 1.0)
	}
	return l
}
