// Package ai decides for commanders the player does not control: whether to
// march on a stronghold and with how many soldiers, and which action to take
// each turn of a siege or field battle.
//
// A commander may follow a doctrine, a Hierarchical Task Network (HTN) domain
// that decomposes the root task "behave" into primitive operators via ordered
// methods. Method preconditions are built-in predicates or Lua hooks;
// operators name siege actions.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

// Task is a goal a doctrine pursues, such as "defend" or "besiege". The
// root task "behave" is where every plan starts.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method is one way of pursuing a task: when its precondition holds for the
// commander's situation, the task becomes Subtasks in order. A task's methods
// are tried in declaration order and the first applicable one wins.
//
// Precondition is empty (always applicable), a built-in predicate such as
// "walls_low", or "lua:" followed by a doctrine hook; a leading "!" negates it.
type Method struct {
	TaskID       string   `yaml:"task"`
	ID           string   `yaml:"id"`
	Precondition string   `yaml:"precondition"`
	Subtasks     []string `yaml:"subtasks"`
}

// Operator is a plan's leaf: one siege action to take this turn.
type Operator struct {
	ID     string `yaml:"id"`
	Action string `yaml:"action"`
	// Destination names a refuge for a defender's retreat; empty lets the
	// garrison pick the best one.
	Destination string `yaml:"destination"`
}

// Domain is a doctrine: the tasks, methods and operators that turn a
// commander's situation into a siege action.
//
// Invariant: after Validate, IDs are unique within each slice and every
// reference resolves.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// Validate checks d is a usable doctrine.
//
// Postcondition: nil means d has an ID and at least one task, every method
// names a known task, a known precondition and subtasks that are tasks or
// operators, and every operator names a siege action.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("ai.Domain: ID must not be empty")
	}
	if len(d.Tasks) == 0 {
		return fmt.Errorf("ai.Domain %q: must have at least one task", d.ID)
	}

	tasks := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("ai.Domain %q: task has empty ID", d.ID)
		}
		if tasks[t.ID] {
			return fmt.Errorf("ai.Domain %q: duplicate task ID %q", d.ID, t.ID)
		}
		tasks[t.ID] = true
	}

	steps := make(map[string]bool, len(d.Tasks)+len(d.Operators))
	for id := range tasks {
		steps[id] = true
	}
	ops := make(map[string]bool, len(d.Operators))
	for _, op := range d.Operators {
		if op.ID == "" || op.Action == "" {
			return fmt.Errorf("ai.Domain %q: operator missing ID or Action", d.ID)
		}
		if ops[op.ID] {
			return fmt.Errorf("ai.Domain %q: duplicate operator ID %q", d.ID, op.ID)
		}
		if _, err := siege.ParseAction(op.Action); err != nil {
			return fmt.Errorf("ai.Domain %q operator %q: %w", d.ID, op.ID, err)
		}
		ops[op.ID] = true
		steps[op.ID] = true
	}

	methods := make(map[string]bool, len(d.Methods))
	for _, m := range d.Methods {
		if m.TaskID == "" || m.ID == "" {
			return fmt.Errorf("ai.Domain %q: method missing TaskID or ID", d.ID)
		}
		if methods[m.ID] {
			return fmt.Errorf("ai.Domain %q: duplicate method ID %q", d.ID, m.ID)
		}
		methods[m.ID] = true
		if !tasks[m.TaskID] {
			return fmt.Errorf("ai.Domain %q method %q: TaskID %q references unknown task", d.ID, m.ID, m.TaskID)
		}
		cond := strings.TrimPrefix(m.Precondition, "!")
		if cond != "" && !strings.HasPrefix(cond, luaPrefix) && !IsPredicate(cond) {
			return fmt.Errorf("ai.Domain %q method %q: unknown precondition %q", d.ID, m.ID, m.Precondition)
		}
		if len(m.Subtasks) == 0 {
			return fmt.Errorf("ai.Domain %q method %q: subtasks must not be empty", d.ID, m.ID)
		}
		for _, sub := range m.Subtasks {
			if !steps[sub] {
				return fmt.Errorf("ai.Domain %q method %q: subtask %q is neither a task nor an operator", d.ID, m.ID, sub)
			}
		}
	}
	return nil
}

// OperatorByID returns the operator with id.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	for _, op := range d.Operators {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// MethodsForTask returns the ways of pursuing taskID, in the order they are
// tried.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

// luaPrefix marks a precondition evaluated by a Lua hook.
const luaPrefix = "lua:"

// yamlDomainFile is a doctrine file: one domain under a top-level "domain" key.
type yamlDomainFile struct {
	Domain *Domain `yaml:"domain"`
}

// LoadDoctrines reads every doctrine file in dir.
//
// Postcondition: every returned domain is valid, or the first bad file is
// reported. A directory with no .yaml files yields no domains and no error.
func LoadDoctrines(dir string) ([]*Domain, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadDoctrines: reading %q: %w", dir, err)
	}
	var domains []*Domain
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("ai.LoadDoctrines: reading %s: %w", e.Name(), err)
		}
		var f yamlDomainFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("ai.LoadDoctrines: parsing %s: %w", e.Name(), err)
		}
		if f.Domain == nil {
			return nil, fmt.Errorf("ai.LoadDoctrines: %s missing top-level 'domain' key", e.Name())
		}
		if err := f.Domain.Validate(); err != nil {
			return nil, fmt.Errorf("ai.LoadDoctrines: %s: %w", e.Name(), err)
		}
		domains = append(domains, f.Domain)
	}
	return domains, nil
}
