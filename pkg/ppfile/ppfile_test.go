package ppfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppk2fac/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func requireParseError(t *testing.T, err error) *ParseError {
	t.Helper()
	var perr *ParseError
	require.True(t, errors.As(err, &perr), "expected *ParseError, got %v", err)
	return perr
}

func TestReadPilotPoints(t *testing.T) {
	path := writeFile(t, "pp.dat", `# pilot points for the upper aquifer
pp1  100.0  200.0  1  12.5
pp2  300.0  400.0  2  8.25

pp3  500.0  600.0
`)

	points, err := ReadPilotPoints(path)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, models.PilotPoint{ID: "pp1", X: 100, Y: 200, Zone: 1, Value: 12.5}, points[0])
	assert.Equal(t, models.PilotPoint{ID: "pp2", X: 300, Y: 400, Zone: 2, Value: 8.25}, points[1])
	// Zone defaults to 1 and value to 0 when omitted.
	assert.Equal(t, models.PilotPoint{ID: "pp3", X: 500, Y: 600, Zone: 1, Value: 0}, points[2])
}

func TestReadPilotPointsErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"short line", "pp1 100.0\n"},
		{"bad x", "pp1 abc 200.0\n"},
		{"bad zone", "pp1 100.0 200.0 west\n"},
		{"empty file", "# only comments\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "pp.dat", tc.content)
			_, err := ReadPilotPoints(path)
			perr := requireParseError(t, err)
			assert.Equal(t, path, perr.File)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadPilotPoints(filepath.Join(t.TempDir(), "absent.dat"))
		requireParseError(t, err)
	})
}

func TestReadNodes(t *testing.T) {
	path := writeFile(t, "nodes.dat", `C model mesh nodes
# another comment style
1  0.0   0.0
2  50.0  0.0
3  0.0   50.0
`)

	nodes, err := ReadNodes(path)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, models.GridNode{ID: 2, X: 50, Y: 0}, nodes[1])
}

func TestReadNodesErrors(t *testing.T) {
	path := writeFile(t, "nodes.dat", "1 0.0\n")
	_, err := ReadNodes(path)
	perr := requireParseError(t, err)
	assert.Equal(t, 1, perr.Line)
}

func TestReadZones(t *testing.T) {
	path := writeFile(t, "zones.dat", `C zone assignments
3
1  1
2  1
3  2
`)

	zones, err := ReadZones(path)
	require.NoError(t, err)
	assert.Equal(t, models.ZoneMap{1: 1, 2: 1, 3: 2}, zones)
}

func TestReadZonesCountMismatch(t *testing.T) {
	path := writeFile(t, "zones.dat", "2\n1 1\n2 1\n3 2\n")
	_, err := ReadZones(path)
	perr := requireParseError(t, err)
	assert.Contains(t, perr.Error(), "declares 2")
}

func TestReadZonesDuplicateNode(t *testing.T) {
	path := writeFile(t, "zones.dat", "2\n1 1\n1 2\n")
	_, err := ReadZones(path)
	requireParseError(t, err)
}

func TestReadZoneStructures(t *testing.T) {
	path := writeFile(t, "zs.dat", `# zone to structure mapping
1  struct1
2  struct2
`)

	assign, err := ReadZoneStructures(path)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "struct1", 2: "struct2"}, assign)
}

func TestReadZoneStructuresConflict(t *testing.T) {
	path := writeFile(t, "zs.dat", "1 struct1\n1 struct2\n")
	_, err := ReadZoneStructures(path)
	requireParseError(t, err)
}

func TestReadStructures(t *testing.T) {
	path := writeFile(t, "struct.dat", `# aquifer structures
STRUCTURE struct1
  NUGGET 0.05
  TRANSFORM log
  NUMVARIOGRAM 2
  VARIOGRAM vario1 0.7
  VARIOGRAM vario2 0.25
END
structure struct2
  variogram vario1
end
VARIOGRAM vario1
  VARTYPE 2
  BEARING 45
  A 1500.0
  ANISOTROPY 0.5
END
VARIOGRAM vario2
  VARTYPE 1
  A 400.0
END
`)

	structures, variograms, err := ReadStructures(path, DefaultStructureDefaults())
	require.NoError(t, err)
	require.Len(t, structures, 2)
	require.Len(t, variograms, 2)

	s1 := structures["struct1"]
	require.NotNil(t, s1)
	assert.Equal(t, 0.05, s1.Nugget)
	assert.Equal(t, models.TransformLog, s1.Transform)
	assert.Equal(t, 1.0, s1.MaxPowerVariance)
	require.Len(t, s1.Variograms, 2)
	assert.Equal(t, models.VariogramRef{Name: "vario1", Contribution: 0.7}, s1.Variograms[0])
	assert.Equal(t, models.VariogramRef{Name: "vario2", Contribution: 0.25}, s1.Variograms[1])

	// Lowercase keywords parse the same; omitted keys take the defaults
	// and an unstated contribution is 1.
	s2 := structures["struct2"]
	require.NotNil(t, s2)
	assert.Equal(t, 0.0, s2.Nugget)
	assert.Equal(t, models.TransformNone, s2.Transform)
	require.Len(t, s2.Variograms, 1)
	assert.Equal(t, 1.0, s2.Variograms[0].Contribution)

	v1 := variograms["vario1"]
	require.NotNil(t, v1)
	assert.Equal(t, 2, v1.VarType)
	assert.Equal(t, 45, v1.Bearing)
	assert.Equal(t, 1500.0, v1.RangeA)
	assert.Equal(t, 0.5, v1.Anisotropy)

	// Anisotropy defaults to 1 when omitted.
	assert.Equal(t, 1.0, variograms["vario2"].Anisotropy)
}

func TestReadStructuresCustomDefaults(t *testing.T) {
	path := writeFile(t, "struct.dat", `STRUCTURE s
  VARIOGRAM v
END
VARIOGRAM v
  VARTYPE 1
  A 10.0
END
`)
	defaults := StructureDefaults{Nugget: 0.2, Transform: models.TransformLog, MaxPowerVariance: 3}

	structures, _, err := ReadStructures(path, defaults)
	require.NoError(t, err)
	s := structures["s"]
	assert.Equal(t, 0.2, s.Nugget)
	assert.Equal(t, models.TransformLog, s.Transform)
	assert.Equal(t, 3.0, s.MaxPowerVariance)
}

func TestReadStructuresIgnoresUnknownKeys(t *testing.T) {
	path := writeFile(t, "struct.dat", `STRUCTURE s
  NUGGET 0.1
  MEANVALUE 4.5
  VARIOGRAM v
END
VARIOGRAM v
  VARTYPE 1
  A 10.0
  SOMEFUTUREKEY 9
END
`)

	structures, variograms, err := ReadStructures(path, DefaultStructureDefaults())
	require.NoError(t, err)
	assert.Equal(t, 0.1, structures["s"].Nugget)
	assert.Equal(t, 10.0, variograms["v"].RangeA)
}

func TestReadStructuresErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unclosed block", "STRUCTURE s\n  NUGGET 0.1\n"},
		{"stray end", "END\n"},
		{"nameless structure", "STRUCTURE\nEND\n"},
		{"bad nugget", "STRUCTURE s\n NUGGET soft\n VARIOGRAM v\nEND\nVARIOGRAM v\n VARTYPE 1\n A 1\nEND\n"},
		{"bad transform", "STRUCTURE s\n TRANSFORM sqrt\n VARIOGRAM v\nEND\nVARIOGRAM v\n VARTYPE 1\n A 1\nEND\n"},
		{"numvariogram mismatch", "STRUCTURE s\n NUMVARIOGRAM 2\n VARIOGRAM v\nEND\nVARIOGRAM v\n VARTYPE 1\n A 1\nEND\n"},
		{"undefined variogram", "STRUCTURE s\n VARIOGRAM missing\nEND\n"},
		{"no structures", "VARIOGRAM v\n VARTYPE 1\n A 1\nEND\n"},
		{"duplicate structure", "STRUCTURE s\n VARIOGRAM v\nEND\nSTRUCTURE s\n VARIOGRAM v\nEND\nVARIOGRAM v\n VARTYPE 1\n A 1\nEND\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "struct.dat", tc.content)
			_, _, err := ReadStructures(path, DefaultStructureDefaults())
			requireParseError(t, err)
		})
	}
}
