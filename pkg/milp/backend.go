package milp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Backend names accepted by NewSolver.
const (
	BackendGLPK           = "glpk"
	BackendBranchAndBound = "bnb"
)

// NewSolver builds the named backend. GLPK is the default; the pure Go
// branch-and-bound is a fallback for hosts without libglpk and is only
// practical for small models. maxNodes applies to the fallback alone.
func NewSolver(backend string, maxNodes int, logger *zap.Logger) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendGLPK:
		return NewGLPK(logger), nil
	case BackendBranchAndBound:
		s := NewBranchAndBound(logger)
		if maxNodes > 0 {
			s.MaxNodes = maxNodes
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown solver backend %q (want %q or %q)", backend, BackendGLPK, BackendBranchAndBound)
	}
}
