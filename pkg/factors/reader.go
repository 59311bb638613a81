package factors

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/ppfile"
)

// Read parses a factors file written by Write back into a FactorTable.
// Pilot point indices are converted back to 0-based form and validated
// against the header count.
func Read(path string) (*models.FactorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ppfile.ParseError{File: path, Msg: "cannot open factors file", Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	next := func() (string, bool) {
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			return line, true
		}
		return "", false
	}

	header, ok := next()
	if !ok {
		return nil, &ppfile.ParseError{File: path, Msg: "missing pilot point file header"}
	}
	table := &models.FactorTable{PilotPointFile: strings.TrimSpace(header)}

	countLine, ok := next()
	if !ok {
		return nil, &ppfile.ParseError{File: path, Line: lineNo, Msg: "missing pilot point count"}
	}
	if table.PilotPointCount, err = strconv.Atoi(strings.TrimSpace(countLine)); err != nil {
		return nil, &ppfile.ParseError{File: path, Line: lineNo,
			Msg: fmt.Sprintf("bad pilot point count %q", strings.TrimSpace(countLine)), Err: err}
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &ppfile.ParseError{File: path, Line: lineNo, Msg: "short factor record"}
		}
		var rec models.WeightRecord
		if rec.TargetID, err = strconv.Atoi(fields[0]); err != nil {
			return nil, &ppfile.ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad node id %q", fields[0]), Err: err}
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return nil, &ppfile.ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad contributor count %q", fields[1]), Err: err}
		}
		if len(fields) != 2+2*n {
			return nil, &ppfile.ParseError{File: path, Line: lineNo,
				Msg: fmt.Sprintf("expected %d contributor fields, got %d", 2*n, len(fields)-2)}
		}
		for i := 0; i < n; i++ {
			idx, err := strconv.Atoi(fields[2+2*i])
			if err != nil {
				return nil, &ppfile.ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad pilot point index %q", fields[2+2*i]), Err: err}
			}
			if idx < 1 || idx > table.PilotPointCount {
				return nil, &ppfile.ParseError{File: path, Line: lineNo,
					Msg: fmt.Sprintf("pilot point index %d outside 1..%d", idx, table.PilotPointCount)}
			}
			w, err := strconv.ParseFloat(fields[3+2*i], 64)
			if err != nil {
				return nil, &ppfile.ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad weight %q", fields[3+2*i]), Err: err}
			}
			rec.Contributors = append(rec.Contributors, models.Contributor{Index: idx - 1, Weight: w})
		}
		table.Records = append(table.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ppfile.ParseError{File: path, Msg: "read failed", Err: err}
	}
	return table, nil
}
