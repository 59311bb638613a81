package factors

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ppk2fac/pkg/ppfile"
)

// ReadTranslation reads a node id translation table of
// `sequential_id actual_id` pairs. Lines starting with '#' or 'C' are
// comments.
func ReadTranslation(path string) (map[int]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ppfile.ParseError{File: path, Msg: "cannot open translation file", Err: err}
	}
	defer f.Close()

	trans := make(map[int]int)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' || trimmed[0] == 'C' {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return nil, &ppfile.ParseError{File: path, Line: lineNo,
				Msg: fmt.Sprintf("expected 2 fields (sequential actual), got %d", len(fields))}
		}
		seq, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, &ppfile.ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad sequential id %q", fields[0]), Err: err}
		}
		actual, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, &ppfile.ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad actual id %q", fields[1]), Err: err}
		}
		trans[seq] = actual
	}
	if err := scanner.Err(); err != nil {
		return nil, &ppfile.ParseError{File: path, Msg: "read failed", Err: err}
	}
	return trans, nil
}

// Translate rewrites the node ids of a factors file using a sequential to
// actual translation table, writing the result to outPath. Nodes missing
// from the table fail the translation. It returns the number of node
// records translated.
func Translate(factorsPath, transPath, outPath string) (int, error) {
	table, err := Read(factorsPath)
	if err != nil {
		return 0, err
	}
	trans, err := ReadTranslation(transPath)
	if err != nil {
		return 0, err
	}
	for i := range table.Records {
		actual, ok := trans[table.Records[i].TargetID]
		if !ok {
			return 0, fmt.Errorf("factors: node %d has no translation in %s", table.Records[i].TargetID, transPath)
		}
		table.Records[i].TargetID = actual
	}
	if _, err := WriteFile(outPath, table); err != nil {
		return 0, err
	}
	return len(table.Records), nil
}
