package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ppk2fac/pkg/config"
	"ppk2fac/pkg/par2fac"
)

const usageText = `Usage: par2fac [-config file] pp_file node_file struct_file zone_file \
    zone_struct_file factors_outfile regul_outfile krige_type krige_radius \
    min_ppoints max_ppoints

Computes pilot-point-to-node interpolation factors and writes them to
factors_outfile. krige_type is one of: ordinary, simple, idw2.`

func main() {
	configPath := flag.String("config", "par2fac.yaml", "Optional YAML configuration file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 11 {
		flag.Usage()
		os.Exit(1)
	}
	args := flag.Args()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	defaults, err := cfg.StructureDefaults()
	if err != nil {
		log.Fatalf("Bad configuration: %v", err)
	}
	policy, ok := par2fac.ParseSingularPolicy(cfg.Solver.OnSingular)
	if !ok {
		log.Fatalf("Bad configuration: unknown onSingular value %q", cfg.Solver.OnSingular)
	}

	method, krigeType, ok := par2fac.ParseMethod(args[7])
	if !ok {
		log.Fatalf("Unknown krige_type %q (want ordinary, simple or idw2)", args[7])
	}
	radius, err := strconv.ParseFloat(args[8], 64)
	if err != nil {
		log.Fatalf("Bad krige_radius %q: %v", args[8], err)
	}
	minPoints, err := strconv.Atoi(args[9])
	if err != nil {
		log.Fatalf("Bad min_ppoints %q: %v", args[9], err)
	}
	maxPoints, err := strconv.Atoi(args[10])
	if err != nil {
		log.Fatalf("Bad max_ppoints %q: %v", args[10], err)
	}

	params := &par2fac.Params{
		PilotPointFile:    args[0],
		NodeFile:          args[1],
		StructureFile:     args[2],
		ZoneFile:          args[3],
		ZoneStructureFile: args[4],
		FactorsFile:       args[5],
		RegulFile:         args[6],
		Method:            method,
		KrigeType:         krigeType,
		SearchRadius:      radius,
		MinPoints:         minPoints,
		MaxPoints:         maxPoints,
		IDWPoints:         cfg.Solver.IDWPoints,
		SingularTolerance: cfg.Solver.SingularTolerance,
		OnSingular:        policy,
		Defaults:          defaults,
		NumCores:          cfg.Processing.NumCores,
	}

	engine := par2fac.NewEngine(params)
	if cfg.Processing.Verbose {
		engine.SetProgressCallback(func(completed, total int, message string) {
			if message != "" {
				fmt.Println(" " + message)
			} else if total > 0 {
				fmt.Printf("\r %d/%d nodes", completed, total)
				if completed >= total {
					fmt.Println()
				}
			}
		})
	}

	start := time.Now()
	if err := engine.Process(); err != nil {
		log.Fatalf("Factor computation failed: %v", err)
	}

	summary := engine.Summary()
	fmt.Printf("\nDone in %.2f seconds\n", time.Since(start).Seconds())
	fmt.Printf("  Pilot points:        %d (min spacing %g)\n", summary.PilotPoints, summary.MinPointSpacing)
	fmt.Printf("  Nodes:               %d in %d zones\n", summary.Nodes, summary.Zones)
	fmt.Printf("  Factors written:     %d -> %s\n", summary.Written, params.FactorsFile)
	if summary.Skipped() > 0 {
		fmt.Printf("  Skipped nodes:       %d (%d insufficient points, %d singular systems)\n",
			summary.Skipped(), summary.Insufficient, summary.Singular)
	}
	if params.RegulFile != "" {
		fmt.Printf("  Zone groups:         %s\n", params.RegulFile)
	}
}
