package par2fac

import (
	"errors"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/kdtree"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/geometry"
	"ppk2fac/pkg/interpolation"
)

// nodeSolver computes the contributors for one node. Implementations must
// be safe for concurrent use across nodes.
type nodeSolver interface {
	solve(node models.GridNode) ([]models.Contributor, error)
}

// krigeNodeSolver restricts candidates to the search radius before handing
// them to the zone's kriging solver.
type krigeNodeSolver struct {
	engine *Engine
	zone   int
	solver *interpolation.KrigingSolver
}

func (s *krigeNodeSolver) solve(node models.GridNode) ([]models.Contributor, error) {
	candidates := s.engine.candidatesWithin(geometry.Point{X: node.X, Y: node.Y})
	// A node with no candidates at all is skipped even when MinPoints is
	// zero, so it still lands in the run summary.
	if len(candidates) == 0 || len(candidates) < s.engine.params.MinPoints {
		return nil, &interpolation.InsufficientPilotPointsError{
			Zone:   s.zone,
			Node:   node.ID,
			Found:  len(candidates),
			Min:    s.engine.params.MinPoints,
			Radius: s.engine.params.SearchRadius,
		}
	}
	return s.solver.Weights(node, candidates)
}

// idwNodeSolver weights the closest pilot points by inverse squared distance.
type idwNodeSolver struct {
	solver *interpolation.IDWSolver
}

func (s *idwNodeSolver) solve(node models.GridNode) ([]models.Contributor, error) {
	return s.solver.Weights(geometry.Point{X: node.X, Y: node.Y}), nil
}

// buildSolvers constructs one solver per zone referenced by the mesh.
func (e *Engine) buildSolvers() (map[int]nodeSolver, error) {
	solvers := make(map[int]nodeSolver)
	if e.params.Method == MethodIDW {
		idw, err := interpolation.NewIDWSolver(e.coords, e.params.idwPoints())
		if err != nil {
			return nil, err
		}
		shared := &idwNodeSolver{solver: idw}
		for _, zone := range e.zones {
			solvers[zone] = shared
		}
		return solvers, nil
	}
	for _, zone := range e.zones {
		if _, done := solvers[zone]; done {
			continue
		}
		structure := e.structures[e.zoneStruct[zone]]
		cov, err := interpolation.NewCovarianceModel(structure, e.variograms)
		if err != nil {
			return nil, err
		}
		solvers[zone] = &krigeNodeSolver{
			engine: e,
			zone:   zone,
			solver: interpolation.NewKrigingSolver(cov, e.params.KrigeType, e.coords, zone, e.params.SingularTolerance),
		}
	}
	return solvers, nil
}

// candidatesWithin returns the pilot point indices within the search
// radius of the target, closest first, capped at MaxPoints. Ties in
// distance are broken by pilot point index.
func (e *Engine) candidatesWithin(target geometry.Point) []int {
	r2 := e.params.SearchRadius * e.params.SearchRadius
	keeper := kdtree.NewDistKeeper(r2)
	e.tree().NearestSet(keeper, geometry.IndexedPoint{Point: target})

	type cand struct {
		index int
		dist  float64
	}
	cands := make([]cand, 0, keeper.Len())
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		p := item.Comparable.(geometry.IndexedPoint)
		cands = append(cands, cand{index: p.Index, dist: item.Dist})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].index < cands[j].index
	})
	if len(cands) > e.params.MaxPoints {
		cands = cands[:e.params.MaxPoints]
	}
	indices := make([]int, len(cands))
	for i, c := range cands {
		indices[i] = c.index
	}
	return indices
}

// tree returns the kd-tree over the pilot points, building it on first use.
func (e *Engine) tree() *kdtree.Tree {
	if e.kdTree == nil {
		e.kdTree = geometry.NewTree(e.points)
	}
	return e.kdTree
}

// computeWeights fills the factor table, one record per node in ascending
// node id order. The per-node work is independent, so it is spread across
// NumCores workers owning disjoint node ranges; results land in a
// preallocated slice so parallelism never leaks into output ordering.
func (e *Engine) computeWeights() error {
	solvers, err := e.buildSolvers()
	if err != nil {
		return err
	}
	// Build the spatial index before the workers start; it is read-only
	// from there on.
	e.tree()

	total := len(e.nodes)
	records := make([]models.WeightRecord, total)

	numWorkers := e.params.NumCores
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > runtime.NumCPU() {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > total {
		numWorkers = total
	}
	nodesPerWorker := (total + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0
	insufficient := 0
	singular := 0
	workerErrs := make([]error, numWorkers)

	e.reportProgress(0, total, "Computing weights...")
	for w := 0; w < numWorkers; w++ {
		startIdx := w * nodesPerWorker
		endIdx := startIdx + nodesPerWorker
		if endIdx > total {
			endIdx = total
		}
		if startIdx >= total {
			break
		}

		wg.Add(1)
		go func(worker, startIdx, endIdx int) {
			defer wg.Done()
			for i := startIdx; i < endIdx; i++ {
				node := e.nodes[i]
				records[i] = models.WeightRecord{TargetID: node.ID}

				contribs, err := solvers[e.zones[node.ID]].solve(node)
				switch {
				case err == nil:
					records[i].Contributors = contribs
				case isInsufficient(err):
					mu.Lock()
					insufficient++
					mu.Unlock()
				case isSingular(err) && e.params.OnSingular == SkipOnSingular:
					mu.Lock()
					singular++
					mu.Unlock()
				default:
					workerErrs[worker] = err
					return
				}

				mu.Lock()
				completed++
				done := completed
				mu.Unlock()
				if done%1000 == 0 || done == total {
					e.reportProgress(done, total, "")
				}
			}
		}(w, startIdx, endIdx)
	}
	wg.Wait()

	for _, err := range workerErrs {
		if err != nil {
			return err
		}
	}
	e.summary.Insufficient = insufficient
	e.summary.Singular = singular
	e.table = &models.FactorTable{
		PilotPointFile:  e.params.PilotPointFile,
		PilotPointCount: len(e.points),
		Records:         records,
	}
	return nil
}

func isInsufficient(err error) bool {
	var target *interpolation.InsufficientPilotPointsError
	return errors.As(err, &target)
}

func isSingular(err error) bool {
	var target *interpolation.SingularKrigingSystemError
	return errors.As(err, &target)
}
