package factors

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/ppfile"
)

func sampleTable() *models.FactorTable {
	return &models.FactorTable{
		PilotPointFile:  "points.dat",
		PilotPointCount: 4,
		Records: []models.WeightRecord{
			{TargetID: 1, Contributors: []models.Contributor{
				{Index: 0, Weight: 0.25},
				{Index: 1, Weight: 0.75},
			}},
			{TargetID: 2, Contributors: nil},
			{TargetID: 3, Contributors: []models.Contributor{
				{Index: 3, Weight: 1.0},
			}},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.dat")
	table := sampleTable()

	written, err := WriteFile(path, table)
	require.NoError(t, err)
	assert.Equal(t, 2, written, "nodes with contributors")

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, table, got)
}

func TestWriteIsDeterministic(t *testing.T) {
	table := sampleTable()

	var first, second bytes.Buffer
	_, err := Write(&first, table)
	require.NoError(t, err)
	_, err = Write(&second, table)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestWriteSortsContributors(t *testing.T) {
	table := &models.FactorTable{
		PilotPointFile:  "points.dat",
		PilotPointCount: 3,
		Records: []models.WeightRecord{
			{TargetID: 1, Contributors: []models.Contributor{
				{Index: 2, Weight: 0.5},
				{Index: 0, Weight: 0.5},
			}},
		},
	}

	var buf bytes.Buffer
	_, err := Write(&buf, table)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "factors.dat")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	got, err := Read(path)
	require.NoError(t, err)

	contribs := got.Records[0].Contributors
	require.Len(t, contribs, 2)
	assert.Equal(t, 0, contribs[0].Index)
	assert.Equal(t, 2, contribs[1].Index)
	// The input table is left as supplied.
	assert.Equal(t, 2, table.Records[0].Contributors[0].Index)
}

func TestReadRejectsBadIndices(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"index above count", "points.dat\n           2\n           1    1      3 5.0000000E-01\n"},
		{"zero index", "points.dat\n           2\n           1    1      0 5.0000000E-01\n"},
		{"field count mismatch", "points.dat\n           2\n           1    2      1 5.0000000E-01\n"},
		{"missing count header", "points.dat\n"},
		{"bad weight", "points.dat\n           2\n           1    1      1 heavy\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "factors.dat")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))
			_, err := Read(path)
			var perr *ppfile.ParseError
			require.True(t, errors.As(err, &perr), "expected *ParseError, got %v", err)
		})
	}
}

func TestApply(t *testing.T) {
	table := sampleTable()
	values := []float64{10, 20, 0, 40}

	field, err := Apply(table, values, DefaultApplyOptions())
	require.NoError(t, err)
	require.Len(t, field, 3)

	assert.Equal(t, 1, field[0].NodeID)
	assert.InDelta(t, 0.25*10+0.75*20, field[0].Value, 1e-12)
	assert.Equal(t, -999.0, field[1].Value, "uncovered node gets the empty marker")
	assert.InDelta(t, 40.0, field[2].Value, 1e-12)
}

func TestApplyClamps(t *testing.T) {
	table := &models.FactorTable{
		PilotPointFile:  "points.dat",
		PilotPointCount: 1,
		Records: []models.WeightRecord{
			{TargetID: 1, Contributors: []models.Contributor{{Index: 0, Weight: 1}}},
			{TargetID: 2, Contributors: []models.Contributor{{Index: 0, Weight: -1}}},
		},
	}
	opts := DefaultApplyOptions()
	opts.Low = 1
	opts.High = 100

	field, err := Apply(table, []float64{1e9}, opts)
	require.NoError(t, err)
	assert.Equal(t, 100.0, field[0].Value)
	assert.Equal(t, 1.0, field[1].Value)
}

func TestApplyLogTransform(t *testing.T) {
	table := &models.FactorTable{
		PilotPointFile:  "points.dat",
		PilotPointCount: 2,
		Records: []models.WeightRecord{
			{TargetID: 1, Contributors: []models.Contributor{
				{Index: 0, Weight: 0.5},
				{Index: 1, Weight: 0.5},
			}},
		},
	}
	opts := DefaultApplyOptions()
	opts.Transform = models.TransformLog

	field, err := Apply(table, []float64{10, 1000}, opts)
	require.NoError(t, err)
	// Geometric, not arithmetic, mean under the log transform.
	assert.InDelta(t, 100.0, field[0].Value, 1e-9)
}

func TestApplyRejectsShortValueVector(t *testing.T) {
	table := sampleTable()
	_, err := Apply(table, []float64{1, 2}, DefaultApplyOptions())
	require.Error(t, err)
}

func TestTranslate(t *testing.T) {
	dir := t.TempDir()
	factorsPath := filepath.Join(dir, "factors.dat")
	transPath := filepath.Join(dir, "trans.dat")
	outPath := filepath.Join(dir, "factors_trans.dat")

	_, err := WriteFile(factorsPath, sampleTable())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(transPath, []byte("C sequential to mesh ids\n1 101\n2 205\n3 317\n"), 0644))

	n, err := Translate(factorsPath, transPath, outPath)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := Read(outPath)
	require.NoError(t, err)
	require.Len(t, got.Records, 3)
	assert.Equal(t, 101, got.Records[0].TargetID)
	assert.Equal(t, 205, got.Records[1].TargetID)
	assert.Equal(t, 317, got.Records[2].TargetID)
	// Weights come through untouched.
	assert.InDelta(t, 0.75, got.Records[0].Contributors[1].Weight, 1e-12)
}

func TestTranslateMissingNode(t *testing.T) {
	dir := t.TempDir()
	factorsPath := filepath.Join(dir, "factors.dat")
	transPath := filepath.Join(dir, "trans.dat")

	_, err := WriteFile(factorsPath, sampleTable())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(transPath, []byte("1 101\n2 205\n"), 0644))

	_, err = Translate(factorsPath, transPath, filepath.Join(dir, "out.dat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no translation")
}

func TestApplyPreservesNaNFree(t *testing.T) {
	field, err := Apply(sampleTable(), []float64{1, 2, 3, 4}, DefaultApplyOptions())
	require.NoError(t, err)
	for _, nv := range field {
		assert.False(t, math.IsNaN(nv.Value), "node %d", nv.NodeID)
	}
}
