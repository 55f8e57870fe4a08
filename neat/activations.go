package neat

import (
	"fmt"
	"math"
	"strings"
)

// ActivationFunction identifies the scalar transform applied to a neuron's
// aggregated input. The set is closed; networks dispatch through a lookup table.
type ActivationFunction int

const (
	ReLU ActivationFunction = iota
	LogisticApproximantSteep
	Sine
)

// ActivationFunc is a pure scalar transform.
type ActivationFunc func(x float64) float64

// activationTable is indexed by ActivationFunction.
var activationTable = [...]ActivationFunc{
	ReLU:                     relu,
	LogisticApproximantSteep: logisticApproximantSteep,
	Sine:                     math.Sin,
}

// ActivationFunctions maps configuration names to activation functions.
var ActivationFunctions = map[string]ActivationFunction{
	"relu":     ReLU,
	"logistic": LogisticApproximantSteep,
	"sigmoid":  LogisticApproximantSteep, // alias
	"sine":     Sine,
	"sin":      Sine, // alias
}

// AllActivationFunctions lists every activation function in declaration order.
func AllActivationFunctions() []ActivationFunction {
	return []ActivationFunction{ReLU, LogisticApproximantSteep, Sine}
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationFunction, error) {
	if fn, ok := ActivationFunctions[strings.ToLower(strings.TrimSpace(name))]; ok {
		return fn, nil
	}
	return 0, fmt.Errorf("unknown activation function: %s", name)
}

// Func returns the scalar implementation. It panics on an out-of-range value.
func (a ActivationFunction) Func() ActivationFunc {
	return activationTable[a]
}

// Apply evaluates the activation function at x.
func (a ActivationFunction) Apply(x float64) float64 {
	return activationTable[a](x)
}

func (a ActivationFunction) String() string {
	switch a {
	case ReLU:
		return "relu"
	case LogisticApproximantSteep:
		return "logistic"
	case Sine:
		return "sine"
	}
	return fmt.Sprintf("ActivationFunction(%d)", int(a))
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// logisticApproximantSteep is 1/(1+e^(-4.9x)) with e^x replaced by a bit-level
// approximation (Schraudolph). Accuracy is a few percent, which is enough for
// an evolved network and avoids math.Exp in the hot loop.
func logisticApproximantSteep(x float64) float64 {
	return 1.0 / (1.0 + expApprox(-4.9*x))
}

func expApprox(x float64) float64 {
	// Outside this range the integer trick overflows the exponent field.
	x = clamp(x, -700, 700)
	return math.Float64frombits(uint64(int64(1512775*x+(1072693248-60801))) << 32)
}
