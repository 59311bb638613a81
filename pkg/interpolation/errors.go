package interpolation

import "fmt"

// SingularKrigingSystemError reports a kriging system whose matrix is
// singular or conditioned worse than the configured tolerance. The caller
// decides whether the node is skipped or the run aborts.
type SingularKrigingSystemError struct {
	Zone int
	Node int
	Cond float64
}

func (e *SingularKrigingSystemError) Error() string {
	return fmt.Sprintf("singular kriging system for node %d in zone %d (condition number %.3g)",
		e.Node, e.Zone, e.Cond)
}

// InsufficientPilotPointsError reports a node with fewer candidate pilot
// points inside the search radius than the configured minimum. It is
// recoverable: the node is recorded with an empty contributor list and
// counted in the run summary.
type InsufficientPilotPointsError struct {
	Zone   int
	Node   int
	Found  int
	Min    int
	Radius float64
}

func (e *InsufficientPilotPointsError) Error() string {
	return fmt.Sprintf("node %d in zone %d has %d pilot points within radius %g, need at least %d",
		e.Node, e.Zone, e.Found, e.Radius, e.Min)
}
