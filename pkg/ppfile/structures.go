package ppfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ppk2fac/internal/models"
)

// StructureDefaults supplies the values used for keys omitted from a
// STRUCTURE block. Passing them explicitly keeps the parser free of
// buried magic numbers.
type StructureDefaults struct {
	Nugget           float64
	Transform        models.Transform
	MaxPowerVariance float64
}

// DefaultStructureDefaults returns the conventional defaults:
// nugget 0, no transform, unit max power variance.
func DefaultStructureDefaults() StructureDefaults {
	return StructureDefaults{Nugget: 0, Transform: models.TransformNone, MaxPowerVariance: 1}
}

// parserState tracks which block the structure-file scanner is inside.
type parserState int

const (
	seekBlock parserState = iota
	inStructureBlock
	inVariogramBlock
)

// ReadStructures parses a structure/variogram definition file holding
// keyword-delimited nested blocks:
//
//	STRUCTURE name
//	  NUGGET 0.1
//	  TRANSFORM log
//	  MAXPOWERVAR 1.0
//	  NUMVARIOGRAM 1
//	  VARIOGRAM vario1 0.9
//	END
//	VARIOGRAM vario1
//	  VARTYPE 2
//	  BEARING 0
//	  A 1500.0
//	  ANISOTROPY 1.0
//	END
//
// Keys are case-insensitive and unrecognized keys are ignored for forward
// compatibility. Lines starting with '#' or 'C' are comments. The returned
// maps are keyed by block name.
func ReadStructures(path string, defaults StructureDefaults) (map[string]*models.Structure, map[string]*models.VariogramModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &ParseError{File: path, Msg: "cannot open structure file", Err: err}
	}
	defer f.Close()

	structures := make(map[string]*models.Structure)
	variograms := make(map[string]*models.VariogramModel)

	state := seekBlock
	var curStruct *models.Structure
	var curVario *models.VariogramModel
	declaredVariograms := -1

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isComment(line, "#C") {
			continue
		}
		fields := strings.Fields(line)
		key := strings.ToUpper(fields[0])

		switch state {
		case seekBlock:
			switch key {
			case "STRUCTURE":
				if len(fields) < 2 {
					return nil, nil, &ParseError{File: path, Line: lineNo, Msg: "STRUCTURE block without a name"}
				}
				if _, dup := structures[fields[1]]; dup {
					return nil, nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("duplicate structure %q", fields[1])}
				}
				curStruct = &models.Structure{
					Name:             fields[1],
					Nugget:           defaults.Nugget,
					Transform:        defaults.Transform,
					MaxPowerVariance: defaults.MaxPowerVariance,
				}
				declaredVariograms = -1
				state = inStructureBlock
			case "VARIOGRAM":
				if len(fields) < 2 {
					return nil, nil, &ParseError{File: path, Line: lineNo, Msg: "VARIOGRAM block without a name"}
				}
				if _, dup := variograms[fields[1]]; dup {
					return nil, nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("duplicate variogram %q", fields[1])}
				}
				curVario = &models.VariogramModel{Name: fields[1], Anisotropy: 1}
				state = inVariogramBlock
			case "END":
				return nil, nil, &ParseError{File: path, Line: lineNo, Msg: "END outside of a block"}
				// Unknown top-level keys are ignored.
			}

		case inStructureBlock:
			switch key {
			case "END":
				if declaredVariograms >= 0 && declaredVariograms != len(curStruct.Variograms) {
					return nil, nil, &ParseError{File: path, Line: lineNo,
						Msg: fmt.Sprintf("structure %q declares %d variograms, lists %d",
							curStruct.Name, declaredVariograms, len(curStruct.Variograms))}
				}
				structures[curStruct.Name] = curStruct
				curStruct = nil
				state = seekBlock
			case "NUGGET":
				v, perr := parseFloatKey(path, lineNo, key, fields)
				if perr != nil {
					return nil, nil, perr
				}
				curStruct.Nugget = v
			case "TRANSFORM":
				if len(fields) < 2 {
					return nil, nil, &ParseError{File: path, Line: lineNo, Msg: "TRANSFORM without a value"}
				}
				tr, ok := models.ParseTransform(fields[1])
				if !ok {
					return nil, nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("unknown transform %q", fields[1])}
				}
				curStruct.Transform = tr
			case "MAXPOWERVAR":
				v, perr := parseFloatKey(path, lineNo, key, fields)
				if perr != nil {
					return nil, nil, perr
				}
				curStruct.MaxPowerVariance = v
			case "NUMVARIOGRAM":
				v, perr := parseIntKey(path, lineNo, key, fields)
				if perr != nil {
					return nil, nil, perr
				}
				declaredVariograms = v
			case "VARIOGRAM":
				if len(fields) < 2 {
					return nil, nil, &ParseError{File: path, Line: lineNo, Msg: "VARIOGRAM reference without a name"}
				}
				ref := models.VariogramRef{Name: fields[1], Contribution: 1}
				if len(fields) > 2 {
					c, err := strconv.ParseFloat(fields[2], 64)
					if err != nil {
						return nil, nil, &ParseError{File: path, Line: lineNo,
							Msg: fmt.Sprintf("bad variogram contribution %q", fields[2]), Err: err}
					}
					ref.Contribution = c
				}
				curStruct.Variograms = append(curStruct.Variograms, ref)
				// Unknown keys inside the block are ignored.
			}

		case inVariogramBlock:
			switch key {
			case "END":
				variograms[curVario.Name] = curVario
				curVario = nil
				state = seekBlock
			case "VARTYPE":
				v, perr := parseIntKey(path, lineNo, key, fields)
				if perr != nil {
					return nil, nil, perr
				}
				curVario.VarType = v
			case "BEARING":
				v, perr := parseIntKey(path, lineNo, key, fields)
				if perr != nil {
					return nil, nil, perr
				}
				curVario.Bearing = v
			case "A":
				v, perr := parseFloatKey(path, lineNo, key, fields)
				if perr != nil {
					return nil, nil, perr
				}
				curVario.RangeA = v
			case "ANISOTROPY":
				v, perr := parseFloatKey(path, lineNo, key, fields)
				if perr != nil {
					return nil, nil, perr
				}
				curVario.Anisotropy = v
				// Unknown keys inside the block are ignored.
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, &ParseError{File: path, Msg: "read failed", Err: err}
	}
	if state != seekBlock {
		name := ""
		if curStruct != nil {
			name = curStruct.Name
		} else if curVario != nil {
			name = curVario.Name
		}
		return nil, nil, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("block %q not closed by END", name)}
	}
	if len(structures) == 0 {
		return nil, nil, &ParseError{File: path, Msg: "no STRUCTURE blocks found"}
	}

	// Every variogram referenced by a structure must be defined somewhere
	// in the file; catching it here names the offending structure.
	for _, s := range structures {
		for _, ref := range s.Variograms {
			if _, ok := variograms[ref.Name]; !ok {
				return nil, nil, &ParseError{File: path,
					Msg: fmt.Sprintf("structure %q references undefined variogram %q", s.Name, ref.Name)}
			}
		}
	}
	return structures, variograms, nil
}

func parseFloatKey(path string, lineNo int, key string, fields []string) (float64, *ParseError) {
	if len(fields) < 2 {
		return 0, &ParseError{File: path, Line: lineNo, Msg: key + " without a value"}
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad %s value %q", key, fields[1]), Err: err}
	}
	return v, nil
}

func parseIntKey(path string, lineNo int, key string, fields []string) (int, *ParseError) {
	if len(fields) < 2 {
		return 0, &ParseError{File: path, Line: lineNo, Msg: key + " without a value"}
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, &ParseError{File: path, Line: lineNo, Msg: fmt.Sprintf("bad %s value %q", key, fields[1]), Err: err}
	}
	return v, nil
}
