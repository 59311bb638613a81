// Command applyfac carries out spatial parameter interpolation to mesh
// nodes using interpolation factors calculated by par2fac and pilot point
// values contained in a pilot points file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/factors"
	"ppk2fac/pkg/ppfile"
)

const usageText = `Usage: applyfac [flags] factors_file pp_file outfile

Combines a factors file with the values in a pilot points file and writes
one "node_id value" line per mesh node.`

func main() {
	low := flag.Float64("rlow", 0, "Lower interpolation threshold")
	high := flag.Float64("rhigh", 1e6, "Upper interpolation threshold")
	empty := flag.Float64("empty", -999, "Value for nodes without contributors")
	logTransform := flag.Bool("log", false, "Combine values in log10 space")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}

	table, err := factors.Read(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read factors: %v", err)
	}
	points, err := ppfile.ReadPilotPoints(flag.Arg(1))
	if err != nil {
		log.Fatalf("Failed to read pilot points: %v", err)
	}
	if len(points) != table.PilotPointCount {
		log.Fatalf("Factors file expects %d pilot points, %s has %d",
			table.PilotPointCount, flag.Arg(1), len(points))
	}
	values := make([]float64, len(points))
	for i, pp := range points {
		values[i] = pp.Value
	}

	opts := factors.ApplyOptions{Low: *low, High: *high, Empty: *empty, Transform: models.TransformNone}
	if *logTransform {
		opts.Transform = models.TransformLog
	}
	field, err := factors.Apply(table, values, opts)
	if err != nil {
		log.Fatalf("Failed to apply factors: %v", err)
	}

	f, err := os.Create(flag.Arg(2))
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	w := bufio.NewWriter(f)
	for _, nv := range field {
		fmt.Fprintf(w, "%12d %s\n", nv.NodeID, strconv.FormatFloat(nv.Value, 'E', 7, 64))
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to close output file: %v", err)
	}
	fmt.Printf(" Wrote %d nodal values to %s\n", len(field), flag.Arg(2))
}
