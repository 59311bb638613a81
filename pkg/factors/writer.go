// Package factors persists and consumes the sparse weight table produced
// by an interpolation run. The factors file is plain text: the pilot point
// source file name, the pilot point count, then one line per node holding
// the node id, its contributor count and (pilot point, weight) pairs.
// Pilot point indices are written 1-based; contributors appear in ascending
// index order so re-running on unchanged inputs is byte-identical.
package factors

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"ppk2fac/internal/models"
)

// Write serializes a factor table. Nodes without contributors are written
// with a zero count so the file covers every mesh node. It returns the
// number of nodes written with at least one contributor.
func Write(w io.Writer, table *models.FactorTable) (int, error) {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%12d\n", table.PilotPointFile, table.PilotPointCount); err != nil {
		return 0, err
	}
	count := 0
	for _, rec := range table.Records {
		contribs := rec.Contributors
		if !sort.SliceIsSorted(contribs, func(i, j int) bool { return contribs[i].Index < contribs[j].Index }) {
			sorted := make([]models.Contributor, len(contribs))
			copy(sorted, contribs)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
			contribs = sorted
		}
		if _, err := fmt.Fprintf(bw, "%12d %4d", rec.TargetID, len(contribs)); err != nil {
			return count, err
		}
		for _, c := range contribs {
			if _, err := fmt.Fprintf(bw, " %6d %.7E", c.Index+1, c.Weight); err != nil {
				return count, err
			}
		}
		if _, err := fmt.Fprintln(bw); err != nil {
			return count, err
		}
		if len(contribs) > 0 {
			count++
		}
	}
	return count, bw.Flush()
}

// WriteFile writes a factor table to path, creating or truncating it.
func WriteFile(path string, table *models.FactorTable) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("cannot create factors file: %w", err)
	}
	count, werr := Write(f, table)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return count, werr
}
