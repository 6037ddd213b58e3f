package dedupe

// ActionKind names a tree change made by the pass.
type ActionKind string

const (
	ActionMove   ActionKind = "move"
	ActionRemove ActionKind = "remove"
)

// Action is one change in the order it was made. Paths are those in effect
// at that moment, so replaying the actions in order on disk reproduces the
// final tree: moving a directory carries everything nested in it.
type Action struct {
	Kind ActionKind `json:"kind"`
	ID   string     `json:"id"`
	From string     `json:"from"`
	To   string     `json:"to,omitempty"`
}

// Anomaly is a branch skipped because the tree was inconsistent.
type Anomaly struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarizes one hoist pass.
type Report struct {
	RunID     string    `json:"run_id"`
	Actions   []Action  `json:"actions"`
	Retained  int       `json:"retained"`
	Anomalies []Anomaly `json:"anomalies,omitempty"`
}

// Moves returns the number of hoisted packages.
func (r *Report) Moves() int { return r.count(ActionMove) }

// Removals returns the number of removed duplicates.
func (r *Report) Removals() int { return r.count(ActionRemove) }

func (r *Report) count(kind ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}
