package ai

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// rootTask is the task every doctrine plan starts from.
const rootTask = "behave"

// ScriptCaller is the interface required by the Planner to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallWithFacts calls a named Lua function in the doctrine's VM with a
	// table of facts. Returns (LNil, nil) if the function is not defined.
	CallWithFacts(doctrineID, hook string, facts map[string]float64) (lua.LValue, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	Action      string
	Destination string
}

// Planner evaluates an HTN domain for one commander and produces an ordered
// action plan for the current turn.
//
// Invariant: domain and caller must not be nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
	params Params
}

// NewPlanner constructs a Planner.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, p Params) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller, params: p}
}

// Plan evaluates the HTN domain against sit and returns an ordered plan.
//
// Postcondition: returns a non-nil slice (may be empty). Lua failures are
// treated as precondition-false, never as errors.
func (p *Planner) Plan(sit Situation) []PlannedAction {
	taskQueue := []string{rootTask}
	result := []PlannedAction{}

	const maxDepth = 32 // guard against recursive domains
	steps := 0

	for len(taskQueue) > 0 && steps < maxDepth {
		steps++
		current := taskQueue[0]
		taskQueue = taskQueue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			result = append(result, PlannedAction{Action: op.Action, Destination: op.Destination})
			continue
		}

		method := p.findApplicableMethod(current, sit)
		if method == nil {
			continue
		}
		taskQueue = append(append([]string(nil), method.Subtasks...), taskQueue...)
	}
	return result
}

// findApplicableMethod returns the first Method for taskID whose precondition
// holds, or nil if none applies. Methods are tried in declaration order.
func (p *Planner) findApplicableMethod(taskID string, sit Situation) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if p.holds(m.Precondition, sit) {
			return m
		}
	}
	return nil
}

func (p *Planner) holds(cond string, sit Situation) bool {
	if cond == "" {
		return true
	}
	negate := strings.HasPrefix(cond, "!")
	cond = strings.TrimPrefix(cond, "!")

	var ok bool
	if hook, isLua := strings.CutPrefix(cond, luaPrefix); isLua {
		val, _ := p.caller.CallWithFacts(p.domain.ID, hook, sit.Facts())
		ok = val == lua.LTrue
	} else if pred, known := predicates[cond]; known {
		ok = pred(sit, p.params)
	}
	return ok != negate
}
