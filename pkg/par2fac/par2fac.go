// Package par2fac wires the input parsers, the per-zone weight solvers and
// the factor-table writer into the one-shot pipeline that turns pilot
// points plus a mesh into a persisted interpolation factor table:
//
//	ParsePilotPoints → ValidateGeometry → ParseMeshNodes → ParseStructures →
//	ParseZones → ParseZoneStructureAssignment → ValidateCoverage →
//	ComputeWeightsPerZone → WriteFactors
//
// Fatal failures (parse, geometry, coverage) abort the run; per-node
// failures are counted into the run summary so a partial result remains
// usable.
package par2fac

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/kdtree"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/geometry"
	"ppk2fac/pkg/interpolation"
	"ppk2fac/pkg/ppfile"
)

// Method selects the weight computation path for a run.
type Method int

const (
	// MethodKriging computes weights from each zone's variogram structure.
	MethodKriging Method = iota

	// MethodIDW computes inverse-distance-squared weights, ignoring the
	// zone structures (they are still parsed and validated).
	MethodIDW
)

// ParseMethod maps the CLI krige_type keyword to a method and, for the
// kriging paths, the kriging variant. Recognized keywords: "ordinary",
// "simple", "idw2".
func ParseMethod(s string) (Method, interpolation.KrigeType, bool) {
	switch strings.ToLower(s) {
	case "idw2", "idw":
		return MethodIDW, interpolation.OrdinaryKriging, true
	}
	kt, ok := interpolation.ParseKrigeType(s)
	return MethodKriging, kt, ok
}

// SingularPolicy selects the response to a singular kriging system.
type SingularPolicy int

const (
	// AbortOnSingular stops the whole run on the first singular system.
	AbortOnSingular SingularPolicy = iota

	// SkipOnSingular records the node without contributors and continues.
	SkipOnSingular
)

// ParseSingularPolicy maps the config keyword to a policy.
func ParseSingularPolicy(s string) (SingularPolicy, bool) {
	switch strings.ToLower(s) {
	case "abort":
		return AbortOnSingular, true
	case "skip":
		return SkipOnSingular, true
	}
	return AbortOnSingular, false
}

// CoverageError reports a mesh/zone mismatch discovered before any weight
// computation: a node count differing from the zone assignment count, a
// node without a zone, or a zone without a structure.
type CoverageError struct {
	Msg string
}

func (e *CoverageError) Error() string { return "coverage error: " + e.Msg }

// Params holds the file paths and solver settings for one run.
type Params struct {
	// PilotPointFile is the pilot points input file (id x y [zone] [value]).
	PilotPointFile string

	// NodeFile is the mesh node file (id x y).
	NodeFile string

	// StructureFile is the STRUCTURE/VARIOGRAM definition file.
	StructureFile string

	// ZoneFile assigns mesh nodes to zones.
	ZoneFile string

	// ZoneStructureFile assigns one structure to each zone.
	ZoneStructureFile string

	// FactorsFile is the factor table output path.
	FactorsFile string

	// RegulFile is the per-zone pilot point grouping output path, used by
	// downstream regularization. Empty disables it.
	RegulFile string

	// Method selects kriging or inverse-distance-squared weights.
	Method Method

	// KrigeType selects ordinary or simple kriging for MethodKriging.
	KrigeType interpolation.KrigeType

	// SearchRadius bounds the candidate pilot point search per node.
	SearchRadius float64

	// MinPoints is the minimum number of pilot points a node needs within
	// the search radius; nodes below it are recorded without contributors.
	MinPoints int

	// MaxPoints caps the pilot points used per node. Must be >= MinPoints.
	MaxPoints int

	// IDWPoints is the number of points per target for MethodIDW.
	IDWPoints int

	// SingularTolerance is the reciprocal condition number below which a
	// kriging system is treated as singular. Zero selects the default.
	SingularTolerance float64

	// OnSingular selects skip-or-abort handling of singular systems.
	OnSingular SingularPolicy

	// Defaults fill keys omitted from STRUCTURE blocks.
	Defaults ppfile.StructureDefaults

	// NumCores bounds the worker count for the per-node computation.
	// Values below 1 select a single worker.
	NumCores int
}

// idwPoints resolves the per-target point count for MethodIDW: an unset
// IDWPoints falls back to MinPoints.
func (p *Params) idwPoints() int {
	if p.IDWPoints < 1 {
		return p.MinPoints
	}
	return p.IDWPoints
}

// RunSummary reports what a run produced, including the recoverable
// per-node failures that did not stop it.
type RunSummary struct {
	// PilotPoints, Nodes and Zones count the parsed inputs.
	PilotPoints int
	Nodes       int
	Zones       int

	// MinPointSpacing is the minimum pairwise pilot point distance.
	MinPointSpacing float64

	// Written counts nodes persisted with at least one contributor.
	Written int

	// Insufficient counts nodes with too few pilot points in radius.
	Insufficient int

	// Singular counts nodes skipped because of a singular kriging system
	// (only under SkipOnSingular).
	Singular int
}

// Skipped returns the number of nodes recorded without contributors.
func (s RunSummary) Skipped() int { return s.Insufficient + s.Singular }

// ProgressCallback is a function that reports progress during the weight
// computation. If the message is not empty it should be displayed to the
// user; otherwise completed/total describe a progress update.
type ProgressCallback func(completed, total int, message string)

// Engine runs the factor computation pipeline.
type Engine struct {
	params           *Params
	progressCallback ProgressCallback

	points     []models.PilotPoint
	coords     []geometry.Point
	nodes      []models.GridNode
	zones      models.ZoneMap
	structures map[string]*models.Structure
	variograms map[string]*models.VariogramModel
	zoneStruct map[int]string
	kdTree     *kdtree.Tree

	table   *models.FactorTable
	summary RunSummary
}

// NewEngine creates an engine for one run with the provided parameters.
func NewEngine(params *Params) *Engine {
	return &Engine{params: params}
}

// SetProgressCallback sets a callback invoked during the weight
// computation stage.
func (e *Engine) SetProgressCallback(cb ProgressCallback) {
	e.progressCallback = cb
}

// Summary returns the run summary. Valid after Process returns nil.
func (e *Engine) Summary() RunSummary { return e.summary }

// Table returns the computed factor table. Valid after Process returns nil.
func (e *Engine) Table() *models.FactorTable { return e.table }

// Process executes the full pipeline and writes the factors file (and the
// regularization file when configured). Preconditions are checked before
// any file is opened, so a bad point range never leaves partial output.
func (e *Engine) Process() error {
	if e.params.MaxPoints < e.params.MinPoints {
		return fmt.Errorf("max_ppoints (%d) < min_ppoints (%d)", e.params.MaxPoints, e.params.MinPoints)
	}
	if e.params.Method == MethodKriging && e.params.SearchRadius <= 0 {
		return fmt.Errorf("search radius must be positive, got %g", e.params.SearchRadius)
	}
	if e.params.Method == MethodIDW {
		if n := e.params.idwPoints(); n < 1 || n < e.params.MinPoints || n > e.params.MaxPoints {
			return fmt.Errorf("idw point count %d outside [%d, %d]", n, e.params.MinPoints, e.params.MaxPoints)
		}
	}

	if err := e.loadPilotPoints(); err != nil {
		return err
	}
	if err := e.loadMesh(); err != nil {
		return err
	}
	if err := e.validateCoverage(); err != nil {
		return err
	}
	if err := e.computeWeights(); err != nil {
		return err
	}
	return e.writeOutputs()
}

// loadPilotPoints parses the pilot points file and validates its geometry.
// The degeneracy check runs before any other file is touched.
func (e *Engine) loadPilotPoints() error {
	points, err := ppfile.ReadPilotPoints(e.params.PilotPointFile)
	if err != nil {
		return err
	}
	spacing, err := geometry.MinPairwiseDistance(points)
	if err != nil {
		return err
	}
	e.points = points
	e.coords = make([]geometry.Point, len(points))
	for i, pp := range points {
		e.coords[i] = geometry.Point{X: pp.X, Y: pp.Y}
	}
	e.summary.PilotPoints = len(points)
	e.summary.MinPointSpacing = spacing
	e.reportProgress(0, 0, fmt.Sprintf("Read %d pilot points (min spacing %g)", len(points), spacing))
	return nil
}

// loadMesh parses the mesh nodes, structures and zone assignments.
func (e *Engine) loadMesh() error {
	nodes, err := ppfile.ReadNodes(e.params.NodeFile)
	if err != nil {
		return err
	}
	// Nodes are emitted in ascending id order regardless of mesh file
	// order, so reruns are byte-identical.
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	e.nodes = nodes
	e.summary.Nodes = len(nodes)

	e.structures, e.variograms, err = ppfile.ReadStructures(e.params.StructureFile, e.params.Defaults)
	if err != nil {
		return err
	}
	if e.zones, err = ppfile.ReadZones(e.params.ZoneFile); err != nil {
		return err
	}
	if e.zoneStruct, err = ppfile.ReadZoneStructures(e.params.ZoneStructureFile); err != nil {
		return err
	}
	e.reportProgress(0, 0, fmt.Sprintf("Read %d nodes, %d structures, %d zone assignments",
		len(nodes), len(e.structures), len(e.zones)))
	return nil
}

// validateCoverage checks that every node resolves to exactly one
// structure before any weight computation starts.
func (e *Engine) validateCoverage() error {
	if len(e.nodes) != len(e.zones) {
		return &CoverageError{Msg: fmt.Sprintf("mesh has %d nodes but zone file assigns %d",
			len(e.nodes), len(e.zones))}
	}
	zoneSet := make(map[int]bool)
	for _, node := range e.nodes {
		zone, ok := e.zones[node.ID]
		if !ok {
			return &CoverageError{Msg: fmt.Sprintf("node %d has no zone assignment", node.ID)}
		}
		zoneSet[zone] = true
	}
	for zone := range zoneSet {
		name, ok := e.zoneStruct[zone]
		if !ok {
			return &CoverageError{Msg: fmt.Sprintf("zone %d has no structure assignment", zone)}
		}
		if _, ok := e.structures[name]; !ok {
			return &CoverageError{Msg: fmt.Sprintf("zone %d assigned to undefined structure %q", zone, name)}
		}
	}
	e.summary.Zones = len(zoneSet)
	return nil
}

// writeOutputs persists the factor table and the per-zone pilot point
// groupings.
func (e *Engine) writeOutputs() error {
	written, err := e.writeFactors()
	if err != nil {
		return err
	}
	e.summary.Written = written
	if e.params.RegulFile != "" {
		if err := e.writeRegul(); err != nil {
			return err
		}
	}
	e.reportProgress(0, 0, fmt.Sprintf("Wrote %d factor records (%d skipped)", written, e.summary.Skipped()))
	return nil
}

func (e *Engine) reportProgress(completed, total int, message string) {
	if e.progressCallback != nil {
		e.progressCallback(completed, total, message)
	}
}
