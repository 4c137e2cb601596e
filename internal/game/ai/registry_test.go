package ai_test

import (
	"testing"

	"github.com/cory-johannsen/castlesiege/internal/game/ai"
)

func TestRegistry_Register_And_PlannerFor(t *testing.T) {
	reg := ai.NewRegistry()
	if err := reg.Register(turtleDomain(), &mockScriptCaller{}, ai.DefaultParams()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	planner, ok := reg.PlannerFor("turtle")
	if !ok || planner == nil {
		t.Fatal("expected planner for turtle")
	}
}

func TestRegistry_Register_CollisionError(t *testing.T) {
	reg := ai.NewRegistry()
	_ = reg.Register(turtleDomain(), &mockScriptCaller{}, ai.DefaultParams())
	if err := reg.Register(turtleDomain(), &mockScriptCaller{}, ai.DefaultParams()); err == nil {
		t.Fatal("expected collision error on second Register")
	}
}

func TestRegistry_PlannerFor_NotFound(t *testing.T) {
	if _, ok := ai.NewRegistry().PlannerFor("missing"); ok {
		t.Fatal("expected not found")
	}
	var nilReg *ai.Registry
	if _, ok := nilReg.PlannerFor("missing"); ok {
		t.Fatal("expected not found on nil registry")
	}
}
