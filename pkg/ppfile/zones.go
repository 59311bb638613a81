package ppfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ppk2fac/internal/models"
)

// ReadZones reads a zone assignment file: a header line holding the number
// of assignments, then `node_id zone_id` pairs. Lines starting with '#' or
// 'C' are comments. The declared count must match the number of pairs read.
func ReadZones(path string) (models.ZoneMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{File: path, Msg: "cannot open zone file", Err: err}
	}
	defer f.Close()

	zones := make(models.ZoneMap)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	declared := -1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isComment(line, "#C") {
			continue
		}
		fields := strings.Fields(line)
		if declared < 0 {
			// First data line is the assignment count.
			if declared, err = strconv.Atoi(fields[0]); err != nil {
				return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad assignment count %q", fields[0]), Err: err}
			}
			continue
		}
		if len(fields) < 2 {
			return nil, &ParseError{File: path, Line: lineNo,
				Msg: fmt.Sprintf("expected 2 fields (node_id zone_id), got %d", len(fields))}
		}
		nodeID, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad node id %q", fields[0]), Err: err}
		}
		zoneID, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad zone id %q", fields[1]), Err: err}
		}
		if _, dup := zones[nodeID]; dup {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("duplicate assignment for node %d", nodeID)}
		}
		zones[nodeID] = zoneID
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{File: path, Msg: "read failed", Err: err}
	}
	if declared < 0 {
		return nil, &ParseError{File: path, Msg: "missing assignment count header"}
	}
	if len(zones) != declared {
		return nil, &ParseError{File: path,
			Msg: fmt.Sprintf("header declares %d assignments, found %d", declared, len(zones))}
	}
	return zones, nil
}

// ReadZoneStructures reads a zone-to-structure mapping file of
// `zone_id structure_name` pairs. Lines starting with '#' or 'C' are
// comments. Every zone may map to exactly one structure.
func ReadZoneStructures(path string) (map[int]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{File: path, Msg: "cannot open zone-structure file", Err: err}
	}
	defer f.Close()

	assign := make(map[int]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isComment(line, "#C") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &ParseError{File: path, Line: lineNo,
				Msg: fmt.Sprintf("expected 2 fields (zone_id structure_name), got %d", len(fields))}
		}
		zoneID, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad zone id %q", fields[0]), Err: err}
		}
		if prev, dup := assign[zoneID]; dup && prev != fields[1] {
			return nil, &ParseError{File: path, Line: lineNo,
				Msg: fmt.Sprintf("zone %d mapped to both %q and %q", zoneID, prev, fields[1])}
		}
		assign[zoneID] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{File: path, Msg: "read failed", Err: err}
	}
	if len(assign) == 0 {
		return nil, &ParseError{File: path, Msg: "no zone-structure assignments found"}
	}
	return assign, nil
}
