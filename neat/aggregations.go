package neat

import (
	"fmt"
	"strings"
)

// AggregationFunction selects how a neuron combines its Aggregate-integrator inputs.
type AggregationFunction int

const (
	Sum AggregationFunction = iota
	Average
	Min
	Max
)

// AggregationFunctions maps configuration names to aggregation functions.
var AggregationFunctions = map[string]AggregationFunction{
	"sum":     Sum,
	"average": Average,
	"mean":    Average, // alias
	"min":     Min,
	"max":     Max,
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationFunction, error) {
	if fn, ok := AggregationFunctions[strings.ToLower(strings.TrimSpace(name))]; ok {
		return fn, nil
	}
	return 0, fmt.Errorf("unknown aggregation function: %s", name)
}

func (a AggregationFunction) String() string {
	switch a {
	case Sum:
		return "sum"
	case Average:
		return "average"
	case Min:
		return "min"
	case Max:
		return "max"
	}
	return fmt.Sprintf("AggregationFunction(%d)", int(a))
}

// Integrator determines how a connection's weighted signal joins its destination.
type Integrator int

const (
	// Aggregate inputs are combined by the destination's aggregation function.
	Aggregate Integrator = iota
	// Modulate inputs multiply the aggregated value.
	Modulate
)

func (i Integrator) String() string {
	switch i {
	case Aggregate:
		return "aggregate"
	case Modulate:
		return "modulate"
	}
	return fmt.Sprintf("Integrator(%d)", int(i))
}

// Toggle returns the opposite integrator.
func (i Integrator) Toggle() Integrator {
	if i == Aggregate {
		return Modulate
	}
	return Aggregate
}
