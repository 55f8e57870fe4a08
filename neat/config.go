package neat

import (
	"fmt"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters of an evolutionary run.
type Config struct {
	Evolution  EvolutionConfig
	Mutation   MutationConfig
	Speciation SpeciationConfig
	Stagnation StagnationConfig
	Network    NetworkConfig
	MapElites  MapElitesConfig
}

// EvolutionConfig holds parameters of the generational loop.
type EvolutionConfig struct {
	PopulationSize int `ini:"population_size"`
	// MaxPopulation caps the merged population after sorting. Zero keeps everything.
	MaxPopulation int `ini:"max_population"`
	NumInputs     int `ini:"num_inputs"`
	NumOutputs    int `ini:"num_outputs"`
	// EvaluationParallelism is the fraction of runtime.NumCPU used for evaluation.
	EvaluationParallelism float64  `ini:"evaluation_parallelism"`
	Seed                  int64    `ini:"seed"` // 0 = time-based
	EvaluateInitial       bool     `ini:"evaluate_initial"`
	EmitFromArchives      bool     `ini:"emit_from_archives"`
	InputLabels           []string `ini:"input_labels" delim:" "`
	OutputLabels          []string `ini:"output_labels" delim:" "`
}

// MutationConfig holds the relative weights of the asexual mutation strategies
// and their tuning. Weights are normalized; they need not sum to 1.
type MutationConfig struct {
	AddNodeWeight          float64   `ini:"add_node_weight"`
	AddConnectionWeight    float64   `ini:"add_connection_weight"`
	MutateIntegratorWeight float64   `ini:"mutate_integrator_weight"`
	MutateActivationWeight float64   `ini:"mutate_activation_weight"`
	MutateWeightsWeight    float64   `ini:"mutate_weights_weight"`
	AddConnectionAttempts  int       `ini:"add_connection_attempts"`
	WeightDeltaStdev       float64   `ini:"weight_delta_stdev"`
	WeightDeltaProbability float64   `ini:"weight_delta_probability"`
	WeightSelectionWeights []float64 `ini:"weight_selection_weights" delim:" "`
}

// SpeciationConfig holds parameters related to speciation.
type SpeciationConfig struct {
	DistanceThreshold float64 `ini:"distance_threshold"`
	SpeciesCapacity   int     `ini:"species_capacity"`
}

// StagnationConfig holds parameters related to progress tracking.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation"`
}

// NetworkConfig holds parameters of decoded networks.
type NetworkConfig struct {
	CyclicPasses int `ini:"cyclic_passes"`
	// PreferAcyclic decodes genomes without cycles into the single-pass network.
	PreferAcyclic bool `ini:"prefer_acyclic"`
}

// MapElitesConfig holds parameters of the quality-diversity archives.
type MapElitesConfig struct {
	GridSize int `ini:"grid_size"`
	// Archives lists one "x:y" pair of auxiliary fitness names per archive.
	Archives []string `ini:"archives" delim:" "`
}

// ArchiveAxes is the pair of auxiliary fitness names describing one archive.
type ArchiveAxes struct {
	X, Y string
}

// Axes parses the Archives entries.
func (c MapElitesConfig) Axes() ([]ArchiveAxes, error) {
	axes := make([]ArchiveAxes, 0, len(c.Archives))
	for _, a := range c.Archives {
		x, y, ok := strings.Cut(strings.TrimSpace(a), ":")
		if !ok || x == "" || y == "" {
			return nil, fmt.Errorf("config error: archive %q must be of the form x:y", a)
		}
		axes = append(axes, ArchiveAxes{X: x, Y: y})
	}
	return axes, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Evolution: EvolutionConfig{
			PopulationSize:        100,
			MaxPopulation:         1000,
			NumInputs:             14,
			NumOutputs:            2,
			EvaluationParallelism: 0.8,
			EvaluateInitial:       true,
			EmitFromArchives:      true,
		},
		Mutation: MutationConfig{
			AddNodeWeight:          0.05,
			AddConnectionWeight:    0.10,
			MutateIntegratorWeight: 0.10,
			MutateActivationWeight: 0.10,
			MutateWeightsWeight:    0.80,
			AddConnectionAttempts:  10,
			WeightDeltaStdev:       0.2,
			WeightDeltaProbability: 0.8,
			WeightSelectionWeights: []float64{12, 4, 2, 1},
		},
		Speciation: SpeciationConfig{
			DistanceThreshold: 5.0,
			SpeciesCapacity:   100,
		},
		Stagnation: StagnationConfig{
			SpeciesFitnessFunc: "max",
			MaxStagnation:      15,
		},
		Network: NetworkConfig{
			CyclicPasses: 2,
		},
		MapElites: MapElitesConfig{
			GridSize: 12,
			Archives: []string{"profit:maxDrawdown", "tradeCountClosed:excursionRatio"},
		},
	}
}

// LoadConfig loads configuration parameters from an INI file. Keys missing
// from the file keep their DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	config, err := loadConfigSource(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return config, nil
}

// ParseConfig parses INI data held in memory.
func ParseConfig(data []byte) (*Config, error) {
	return loadConfigSource(data)
}

func loadConfigSource(source interface{}) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true, // Allow # comments starting with # or ;
		UnescapeValueCommentSymbols: true, // If # or ; appear in value, treat as value
	}, source)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()

	sections := []struct {
		name string
		dst  interface{}
	}{
		{"Evolution", &config.Evolution},
		{"Mutation", &config.Mutation},
		{"Speciation", &config.Speciation},
		{"Stagnation", &config.Stagnation},
		{"Network", &config.Network},
		{"MapElites", &config.MapElites},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) {
			continue
		}
		if err := cfg.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	config.Stagnation.SpeciesFitnessFunc = cleanIniString(config.Stagnation.SpeciesFitnessFunc)
	for i, a := range config.MapElites.Archives {
		config.MapElites.Archives[i] = cleanIniString(a)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Evolution.PopulationSize <= 0 {
		return fmt.Errorf("config error: population_size must be positive")
	}
	if c.Evolution.MaxPopulation < 0 {
		return fmt.Errorf("config error: max_population cannot be negative")
	}
	if c.Evolution.MaxPopulation > 0 && c.Evolution.MaxPopulation < c.Evolution.PopulationSize {
		return fmt.Errorf("config error: max_population cannot be less than population_size")
	}
	if c.Evolution.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.Evolution.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if c.Evolution.EvaluationParallelism <= 0 || c.Evolution.EvaluationParallelism > 1 {
		return fmt.Errorf("config error: evaluation_parallelism must be in (0, 1]")
	}

	weights := []float64{
		c.Mutation.AddNodeWeight, c.Mutation.AddConnectionWeight, c.Mutation.MutateIntegratorWeight,
		c.Mutation.MutateActivationWeight, c.Mutation.MutateWeightsWeight,
	}
	total := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("config error: mutation weights cannot be negative")
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("config error: at least one mutation weight must be positive")
	}
	if c.Mutation.AddConnectionAttempts <= 0 {
		return fmt.Errorf("config error: add_connection_attempts must be positive")
	}
	if c.Mutation.WeightDeltaStdev < 0 {
		return fmt.Errorf("config error: weight_delta_stdev cannot be negative")
	}
	if c.Mutation.WeightDeltaProbability < 0 || c.Mutation.WeightDeltaProbability > 1 {
		return fmt.Errorf("config error: weight_delta_probability must be between 0 and 1")
	}
	if _, err := NewDiscreteDistribution(c.Mutation.WeightSelectionWeights); err != nil {
		return fmt.Errorf("config error: weight_selection_weights: %w", err)
	}

	if c.Speciation.DistanceThreshold < 0 {
		return fmt.Errorf("config error: distance_threshold cannot be negative")
	}
	if c.Speciation.SpeciesCapacity <= 0 {
		return fmt.Errorf("config error: species_capacity must be positive")
	}
	if _, ok := StatFunctions[strings.ToLower(c.Stagnation.SpeciesFitnessFunc)]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	if c.Network.CyclicPasses <= 0 {
		return fmt.Errorf("config error: cyclic_passes must be positive")
	}
	if c.MapElites.GridSize < 2 {
		return fmt.Errorf("config error: grid_size must be at least 2")
	}
	if _, err := c.MapElites.Axes(); err != nil {
		return err
	}
	return nil
}

// EvaluationWorkers converts EvaluationParallelism into a goroutine count of at least 1.
func (c EvolutionConfig) EvaluationWorkers() int {
	n := int(c.EvaluationParallelism * float64(runtime.NumCPU()))
	if n < 1 {
		n = 1
	}
	return n
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	// Remove comments starting with # or ;
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
