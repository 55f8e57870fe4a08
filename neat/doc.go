// Package neat implements the genetic side of a NEAT-style neuroevolution
// engine: genomes with historical innovation IDs, mutation and crossover,
// genetic distance, speciation and MAP-Elites quality-diversity archives.
//
// Genomes are decoded into executable networks by package nn and evolved
// generation by generation by package evolution.
//
// Basic usage:
//
//	cfg, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	runner, err := evolution.New(cfg, func(p nn.Phenome) neat.Fitness {
//		copy(p.Inputs(), []float64{1, 0})
//		p.Activate()
//		return neat.Fitness{Primary: p.Outputs()[0]}
//	})
//	if err != nil {
//		log.Fatalf("Error creating runner: %v", err)
//	}
//
//	for i := 0; i < 100; i++ {
//		report, err := runner.Step(ctx)
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		fmt.Printf("generation %d: best %.4f\n", report.Generation, report.BestFitness)
//	}
package neat
