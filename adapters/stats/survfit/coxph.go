package survfit

import (
	"fmt"
	"math"
	"sort"

	"gosurv/domain/core"
	"gosurv/domain/dataset"
	"gosurv/domain/survival"
	"gosurv/internal"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// FitCoxPH fits a proportional hazards model on every column except durationCol
// and eventCol by maximising the Efron partial likelihood with Newton-Raphson.
func (l *Library) FitCoxPH(table *dataset.Table, durationCol, eventCol string) (*survival.CoxModel, error) {
	data, err := extractRegressionData(table, durationCol, eventCol)
	if err != nil {
		return nil, err
	}
	if len(data.names) == 0 {
		return nil, fmt.Errorf("%w: no covariates besides %q and %q", core.ErrInsufficientData, durationCol, eventCol)
	}
	numEvents := countEvents(data.events)
	if numEvents == 0 {
		return nil, fmt.Errorf("%w: no observed events", core.ErrInsufficientData)
	}

	x, _ := data.centered()
	lik := newEfronLikelihood(data.durations, data.events, x)
	p := len(data.names)
	pen := l.config.CoxPenalizer

	beta, info, iterations, err := newtonRaphson(lik, p, pen, l.config.CoxTolerance, l.config.CoxMaxIterations)
	if err != nil {
		return nil, err
	}

	// Standard errors come from the inverse of the observed information matrix.
	var chol mat.Cholesky
	if ok := chol.Factorize(info); !ok {
		return nil, fmt.Errorf("%w: information matrix is not positive definite", core.ErrSingularDesign)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularDesign, err)
	}

	z := distuv.UnitNormal.Quantile(1 - (1-survival.ConfidenceLevel)/2)
	coefs := make([]survival.CoxCoefficient, p)
	for j, name := range data.names {
		se := math.Sqrt(cov.At(j, j))
		zs := beta[j] / se
		coefs[j] = survival.CoxCoefficient{
			Covariate: name,
			Coef:      beta[j],
			ExpCoef:   math.Exp(beta[j]),
			SE:        se,
			Z:         zs,
			P:         2 * distuv.UnitNormal.Survival(math.Abs(zs)),
			Lower95:   beta[j] - z*se,
			Upper95:   beta[j] + z*se,
		}
	}

	ll, _, _ := lik.evaluate(beta, false, false)
	nullLL, _, _ := lik.evaluate(make([]float64, p), false, false)
	lr := math.Max(2*(ll-nullLL), 0)

	model := &survival.CoxModel{
		DurationCol:        durationCol,
		EventCol:           eventCol,
		TieMethod:          "Efron",
		Penalizer:          pen,
		Coefficients:       coefs,
		LogLikelihood:      ll,
		NullLogLikelihood:  nullLL,
		LRStatistic:        lr,
		LRDegreesOfFreedom: p,
		LRPValue:           distuv.ChiSquared{K: float64(p)}.Survival(lr),
		Concordance:        concordanceIndex(data.durations, data.events, linearPredictor(x, beta)),
		PartialAIC:         -2*ll + 2*float64(p),
		NumObservations:    len(data.durations),
		NumEvents:          numEvents,
		Iterations:         iterations,
	}

	internal.DefaultLogger.Debug("[SurvivalLibrary] Cox model converged in %d iterations (log-likelihood %.4f)", model.Iterations, ll)
	return model, nil
}

// maxStepHalvings bounds the backtracking on a Newton step that lowers the likelihood
const maxStepHalvings = 30

// newtonRaphson maximises the penalized partial likelihood from beta = 0.
// It stops once half the Newton decrement g'I⁻¹g falls below tol; the
// decrement is in log-likelihood units and does not grow with sample size.
// Steps that lower the likelihood are halved. When no halving improves on the
// current point the fit is accepted if the decrement is already small relative
// to the log-likelihood.
func newtonRaphson(lik *efronLikelihood, p int, pen, tol float64, maxIter int) ([]float64, *mat.SymDense, int, error) {
	objective := func(beta []float64, derivatives bool) (float64, []float64, *mat.SymDense) {
		ll, grad, info := lik.evaluate(beta, derivatives, derivatives)
		ll -= 0.5 * pen * floats.Dot(beta, beta)
		if derivatives {
			for j := range grad {
				grad[j] -= pen * beta[j]
				info.SetSym(j, j, info.At(j, j)+pen)
			}
		}
		return ll, grad, info
	}

	beta := make([]float64, p)
	ll, grad, info := objective(beta, true)
	candidate := make([]float64, p)

	for iter := 0; ; iter++ {
		var chol mat.Cholesky
		if ok := chol.Factorize(info); !ok {
			return nil, nil, iter, fmt.Errorf("%w: information matrix is not positive definite", core.ErrSingularDesign)
		}
		var delta mat.VecDense
		if err := chol.SolveVecTo(&delta, mat.NewVecDense(p, grad)); err != nil {
			return nil, nil, iter, fmt.Errorf("%w: %v", core.ErrSingularDesign, err)
		}
		step := delta.RawVector().Data

		decrement := 0.5 * floats.Dot(grad, step)
		if decrement < tol {
			return beta, info, iter, nil
		}
		if iter == maxIter {
			return nil, nil, iter, fmt.Errorf("%w: Newton decrement %.3g after %d iterations", core.ErrNonConvergence, decrement, iter)
		}

		scale := 1.0
		accepted := false
		for h := 0; h < maxStepHalvings; h++ {
			floats.AddScaledTo(candidate, beta, scale, step)
			if next, _, _ := objective(candidate, false); next >= ll {
				accepted = true
				break
			}
			scale /= 2
		}
		if !accepted {
			if decrement <= tol*math.Max(1, math.Abs(ll)) {
				return beta, info, iter, nil
			}
			return nil, nil, iter, fmt.Errorf("%w: no step improves the likelihood (decrement %.3g)", core.ErrNonConvergence, decrement)
		}

		copy(beta, candidate)
		ll, grad, info = objective(beta, true)
	}
}

// efronLikelihood evaluates the Efron-approximated partial log-likelihood.
// Subjects are visited in descending time so risk-set sums accumulate incrementally.
type efronLikelihood struct {
	x      [][]float64
	events []float64
	groups [][]int // subject indices sharing a time, latest time first
}

func newEfronLikelihood(durations, events []float64, x [][]float64) *efronLikelihood {
	order := orderByDuration(durations)
	sort.SliceStable(order, func(a, b int) bool { return durations[order[a]] > durations[order[b]] })

	var groups [][]int
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && durations[order[j]] == durations[order[i]] {
			j++
		}
		groups = append(groups, order[i:j])
		i = j
	}
	return &efronLikelihood{x: x, events: events, groups: groups}
}

// evaluate returns the log-likelihood and, on request, its gradient and the
// negated Hessian (the observed information).
func (e *efronLikelihood) evaluate(beta []float64, wantGrad, wantHess bool) (float64, []float64, *mat.SymDense) {
	p := len(beta)
	wantGrad = wantGrad || wantHess

	var ll float64
	grad := make([]float64, p)
	var info *mat.SymDense
	if wantHess {
		info = mat.NewSymDense(p, nil)
	}

	riskS0 := 0.0
	riskS1 := make([]float64, p)
	riskS2 := make([]float64, p*p)

	tieS1 := make([]float64, p)
	tieS2 := make([]float64, p*p)
	phi1 := make([]float64, p)

	for _, group := range e.groups {
		tieS0 := 0.0
		for j := range tieS1 {
			tieS1[j] = 0
		}
		for j := range tieS2 {
			tieS2[j] = 0
		}
		d := 0

		for _, i := range group {
			xi := e.x[i]
			w := math.Exp(floats.Dot(xi, beta))
			riskS0 += w
			if wantGrad {
				floats.AddScaled(riskS1, w, xi)
			}
			if wantHess {
				accumulateOuter(riskS2, w, xi)
			}

			if e.events[i] == 1 {
				d++
				ll += floats.Dot(xi, beta)
				tieS0 += w
				if wantGrad {
					floats.AddScaled(tieS1, w, xi)
					floats.Add(grad, xi)
				}
				if wantHess {
					accumulateOuter(tieS2, w, xi)
				}
			}
		}

		for k := 0; k < d; k++ {
			f := float64(k) / float64(d)
			phi0 := riskS0 - f*tieS0
			ll -= math.Log(phi0)
			if !wantGrad {
				continue
			}
			for j := 0; j < p; j++ {
				phi1[j] = riskS1[j] - f*tieS1[j]
				grad[j] -= phi1[j] / phi0
			}
			if !wantHess {
				continue
			}
			for a := 0; a < p; a++ {
				for b := a; b < p; b++ {
					phi2 := riskS2[a*p+b] - f*tieS2[a*p+b]
					v := phi2/phi0 - phi1[a]*phi1[b]/(phi0*phi0)
					info.SetSym(a, b, info.At(a, b)+v)
				}
			}
		}
	}

	return ll, grad, info
}

// accumulateOuter adds w * x x^T into the row-major p*p buffer dst
func accumulateOuter(dst []float64, w float64, x []float64) {
	p := len(x)
	for a := 0; a < p; a++ {
		wa := w * x[a]
		for b := 0; b < p; b++ {
			dst[a*p+b] += wa * x[b]
		}
	}
}

func linearPredictor(x [][]float64, beta []float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = floats.Dot(row, beta)
	}
	return out
}

// concordanceIndex is Harrell's C: the share of comparable pairs whose
// earlier failure carries the higher risk score. Score ties count half.
func concordanceIndex(durations, events, risk []float64) float64 {
	var concordant, comparable float64
	for i := range durations {
		if events[i] != 1 {
			continue
		}
		for j := range durations {
			if durations[j] <= durations[i] {
				continue
			}
			comparable++
			switch {
			case risk[i] > risk[j]:
				concordant++
			case risk[i] == risk[j]:
				concordant += 0.5
			}
		}
	}
	if comparable == 0 {
		return 0.5
	}
	return concordant / comparable
}
