package ppfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ppk2fac/internal/models"
)

// ReadNodes reads a mesh node file. Each data line carries `id x y`;
// lines starting with '#' or 'C' are comments.
func ReadNodes(path string) ([]models.GridNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{File: path, Msg: "cannot open node file", Err: err}
	}
	defer f.Close()

	var nodes []models.GridNode
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isComment(line, "#C") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, &ParseError{File: path, Line: lineNo,
				Msg: fmt.Sprintf("expected 3 fields (id x y), got %d", len(fields))}
		}
		var node models.GridNode
		if node.ID, err = strconv.Atoi(fields[0]); err != nil {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad node id %q", fields[0]), Err: err}
		}
		if node.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad x coordinate %q", fields[1]), Err: err}
		}
		if node.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad y coordinate %q", fields[2]), Err: err}
		}
		nodes = append(nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{File: path, Msg: "read failed", Err: err}
	}
	if len(nodes) == 0 {
		return nil, &ParseError{File: path, Msg: "no nodes found"}
	}
	return nodes, nil
}
