package editor

// Plan is the set of backend calls needed to persist a grid.
// Every session of the grid lands in exactly one bucket.
type Plan struct {
	Create    []Session // Added
	Update    []Session // Modified
	Delete    []Session // Deleted, previously persisted
	Dropped   []Session // Deleted, never persisted: nothing to send
	Unchanged []Session
}

// BuildPlan partitions the edit states of a grid.
func BuildPlan(changes []Change) Plan {
	var plan Plan
	for _, c := range changes {
		switch c := c.(type) {
		case Added:
			plan.Create = append(plan.Create, c.Session)
		case Modified:
			plan.Update = append(plan.Update, c.Session)
		case Deleted:
			if c.WasNew() {
				plan.Dropped = append(plan.Dropped, c.Session)
			} else {
				plan.Delete = append(plan.Delete, c.Session)
			}
		case Unchanged:
			plan.Unchanged = append(plan.Unchanged, c.Session)
		}
	}
	return plan
}

// Calls is the number of backend calls the plan issues.
func (p Plan) Calls() int {
	return len(p.Create) + len(p.Update) + len(p.Delete)
}

func (p Plan) IsEmpty() bool {
	return p.Calls() == 0
}
