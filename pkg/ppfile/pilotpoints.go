package ppfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ppk2fac/internal/models"
)

// ReadPilotPoints reads a pilot points file. Each data line carries
// `id x y [zone] [value]`; lines starting with '#' are comments. A missing
// zone defaults to 1 and a missing value to 0.
func ReadPilotPoints(path string) ([]models.PilotPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{File: path, Msg: "cannot open pilot points file", Err: err}
	}
	defer f.Close()

	var points []models.PilotPoint
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isComment(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, &ParseError{File: path, Line: lineNo,
				Msg: fmt.Sprintf("expected at least 3 fields (id x y), got %d", len(fields))}
		}
		pp := models.PilotPoint{ID: fields[0], Zone: 1}
		if pp.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad x coordinate %q", fields[1]), Err: err}
		}
		if pp.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad y coordinate %q", fields[2]), Err: err}
		}
		if len(fields) > 3 {
			zone, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad zone %q", fields[3]), Err: err}
			}
			pp.Zone = zone
		}
		if len(fields) > 4 {
			if pp.Value, err = strconv.ParseFloat(fields[4], 64); err != nil {
				return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad value %q", fields[4]), Err: err}
			}
		}
		points = append(points, pp)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{File: path, Msg: "read failed", Err: err}
	}
	if len(points) == 0 {
		return nil, &ParseError{File: path, Msg: "no pilot points found"}
	}
	return points, nil
}
