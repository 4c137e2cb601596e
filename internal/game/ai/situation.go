package ai

import (
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

// Situation is the snapshot a doctrine plans against for one side of a siege.
type Situation struct {
	Side          force.Side
	Round         int
	RoundCap      int
	OwnSoldiers   int
	EnemySoldiers int
	Supply        int
	Wall          int
	MaxWall       int
	Fortified     bool
	CanRetreat    bool
	Shrewdness    float64
}

// SiegeSituation builds side's Situation from a session view.
//
// Postcondition: Shrewdness is derived from side's officers.
func SiegeSituation(side force.Side, v siege.View) Situation {
	own, enemy := v.Attacker, &v.Garrison.Force
	if side == force.SideDefender {
		own, enemy = enemy, own
	}
	return Situation{
		Side:          side,
		Round:         v.Round,
		RoundCap:      v.RoundCap,
		OwnSoldiers:   own.Soldiers,
		EnemySoldiers: enemy.Soldiers,
		Supply:        own.Supply,
		Wall:          v.Garrison.Wall,
		MaxWall:       v.Garrison.MaxWall,
		Fortified:     v.Fortified,
		CanRetreat:    side == force.SideAttacker || len(v.Garrison.Retreats) > 0,
		Shrewdness:    Shrewdness(DecidingIntelligence(own.Officers)),
	}
}

// Danger is own soldiers over enemy soldiers; lower is more dangerous.
func (s Situation) Danger() float64 {
	return float64(s.OwnSoldiers) / float64(max(s.EnemySoldiers, 1))
}

// WallRatio is wall over max wall, 1 for an unwalled stronghold.
func (s Situation) WallRatio() float64 {
	if s.MaxWall <= 0 {
		return 1
	}
	return float64(s.Wall) / float64(s.MaxWall)
}

// Facts flattens s for Lua hooks.
func (s Situation) Facts() map[string]float64 {
	return map[string]float64{
		"side":           float64(s.Side),
		"round":          float64(s.Round),
		"round_cap":      float64(s.RoundCap),
		"own_soldiers":   float64(s.OwnSoldiers),
		"enemy_soldiers": float64(s.EnemySoldiers),
		"supply":         float64(s.Supply),
		"wall":           float64(s.Wall),
		"max_wall":       float64(s.MaxWall),
		"fortified":      boolFact(s.Fortified),
		"can_retreat":    boolFact(s.CanRetreat),
		"shrewdness":     s.Shrewdness,
		"danger":         s.Danger(),
	}
}

func boolFact(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// predicates are the built-in method preconditions a doctrine may name.
var predicates = map[string]func(Situation, Params) bool{
	"attacker":     func(s Situation, _ Params) bool { return s.Side == force.SideAttacker },
	"defender":     func(s Situation, _ Params) bool { return s.Side == force.SideDefender },
	"outnumbered":  func(s Situation, _ Params) bool { return s.Danger() < 1 },
	"in_danger":    func(s Situation, p Params) bool { return s.Danger() < p.RetreatDanger },
	"superior":     func(s Situation, p Params) bool { return s.Danger() >= p.ChargeRatio },
	"walls_strong": func(s Situation, p Params) bool { return s.Wall >= p.StrongWall },
	"walls_low":    func(s Situation, p Params) bool { return s.WallRatio() < p.RepairWallRatio },
	"fortified":    func(s Situation, _ Params) bool { return s.Fortified },
	"can_retreat":  func(s Situation, _ Params) bool { return s.CanRetreat },
	"shrewd":       func(s Situation, p Params) bool { return s.Shrewdness >= p.ShrewdCutoff },
	"late":         func(s Situation, _ Params) bool { return s.Round*2 > s.RoundCap },
}

// IsPredicate reports whether name is a built-in precondition.
func IsPredicate(name string) bool {
	_, ok := predicates[name]
	return ok
}
