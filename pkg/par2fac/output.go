package par2fac

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"ppk2fac/pkg/factors"
)

// writeFactors persists the computed factor table.
func (e *Engine) writeFactors() (int, error) {
	return factors.WriteFile(e.params.FactorsFile, e.table)
}

// writeRegul writes the per-zone pilot point groupings consumed by
// downstream regularization: one line per zone holding the zone id, the
// group size and the pilot point ids, zones ascending and pilot points in
// file order.
func (e *Engine) writeRegul() error {
	f, err := os.Create(e.params.RegulFile)
	if err != nil {
		return fmt.Errorf("cannot create regularization file: %w", err)
	}
	defer f.Close()

	groups := make(map[int][]string)
	for _, pp := range e.points {
		groups[pp.Zone] = append(groups[pp.Zone], pp.ID)
	}
	zones := make([]int, 0, len(groups))
	for zone := range groups {
		zones = append(zones, zone)
	}
	sort.Ints(zones)

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# pilot point groups from %s\n", e.params.PilotPointFile)
	for _, zone := range zones {
		ids := groups[zone]
		fmt.Fprintf(w, "%6d %4d", zone, len(ids))
		for _, id := range ids {
			fmt.Fprintf(w, " %s", id)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
