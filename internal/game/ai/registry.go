package ai

import "fmt"

// Registry indexes Planners by doctrine ID.
//
// Invariant: each doctrine ID is registered at most once.
type Registry struct {
	planners map[string]*Planner
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{planners: make(map[string]*Planner)}
}

// Register creates and stores a Planner for domain.
//
// Precondition: domain and caller must not be nil.
// Postcondition: returns error on doctrine ID collision.
func (r *Registry) Register(domain *Domain, caller ScriptCaller, p Params) error {
	if _, exists := r.planners[domain.ID]; exists {
		return fmt.Errorf("ai.Registry: doctrine %q already registered", domain.ID)
	}
	r.planners[domain.ID] = NewPlanner(domain, caller, p)
	return nil
}

// PlannerFor returns the Planner for doctrineID, or false if not registered.
func (r *Registry) PlannerFor(doctrineID string) (*Planner, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.planners[doctrineID]
	return p, ok
}
