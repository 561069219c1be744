package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"emcvolume/pkg/config"
	"emcvolume/pkg/logging"
	"emcvolume/pkg/reconstruction"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "emcvolume.yaml", "YAML configuration file (defaults are used if missing)")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this path and exit")
	workers := flag.Int("workers", -1, "Goroutines per kernel call, 0 for all cores (overrides config)")
	orientations := flag.Int("orientations", 0, "Number of random orientations to merge (overrides config)")
	symmetry := flag.String("symmetry", "", "Symmetry to apply: none, friedel, icosahedral or both (overrides config)")
	sections := flag.String("sections", "", "Directory for PNG previews of the central sections (overrides config)")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *workers >= 0 {
		cfg.Run.Workers = *workers
	}
	if *orientations > 0 {
		cfg.Run.Orientations = *orientations
	}
	if *symmetry != "" {
		cfg.Run.Symmetry = *symmetry
	}
	if *sections != "" {
		cfg.Output.SectionsDir = *sections
	}

	level := slog.LevelWarn
	if cfg.Output.Verbose {
		level = slog.LevelInfo
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	fmt.Println("================================")
	fmt.Println("RECIPROCAL-SPACE SLICE AND MERGE")
	fmt.Println("================================")
	fmt.Printf("Volume: %d^%d voxels, %d orientations, symmetry %s\n",
		cfg.Volume.Size, cfg.Volume.Dims, cfg.Run.Orientations, cfg.Run.Symmetry)

	reconstructor := reconstruction.NewReconstructor(cfg)

	startTime := time.Now()
	if err := reconstructor.Process(); err != nil {
		log.Fatalf("Reconstruction failed: %v", err)
	}
	processingTime := time.Since(startTime)

	metrics := reconstructor.GetMetrics()
	fmt.Printf("\nCompleted in %.2f seconds\n\n", processingTime.Seconds())

	fmt.Printf("Validation Metrics:\n")
	fmt.Printf("===================\n")
	fmt.Printf("Root Mean Square Error (RMSE): %.6f\n", metrics.RMSE)
	fmt.Printf("Pearson Correlation: %.4f\n", metrics.Correlation)
	fmt.Printf("Structural Similarity Index (SSIM): %.4f\n", metrics.SSIM)
	fmt.Printf("Least-squares Scale: %.4f\n", metrics.Scale)
	fmt.Printf("Voxel Coverage: %.2f%%\n", metrics.Coverage*100)

	fmt.Println("\nStages:")
	for _, s := range metrics.Stages {
		fmt.Printf("- %-13s %v\n", s.Name, s.Duration.Round(time.Microsecond))
	}
	fmt.Printf("- %d pixels per pattern, %d patterns merged\n", metrics.Pixels, metrics.Orientations)

	if len(metrics.Sections) > 0 {
		fmt.Println("\nSection previews saved to:")
		for _, p := range metrics.Sections {
			fmt.Printf("%s\n", p)
		}
	}
}
