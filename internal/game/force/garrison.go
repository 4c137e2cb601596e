package force

// RetreatOption is an adjacent friendly stronghold a garrison may fall back to.
// Score is the desirability computed by combatmath.RetreatScore; higher is better.
type RetreatOption struct {
	StrongholdID string
	Name         string
	Score        float64
}

// Garrison is a defending Force plus its fortifications.
//
// Invariant (after Clamp): 0 <= Wall <= MaxWall; Fortification >= 0; Loyalty in [0, 100].
type Garrison struct {
	Force
	StrongholdID  string
	Name          string
	Wall          int
	MaxWall       int
	Fortification float64
	Loyalty       float64
	Retreats      []RetreatOption
}

// Clamp re-establishes every numeric invariant of g.
func (g *Garrison) Clamp() {
	g.Force.Clamp()
	g.MaxWall = max(g.MaxWall, 0)
	g.Wall = min(max(g.Wall, 0), g.MaxWall)
	g.Fortification = max(g.Fortification, 0)
	g.Loyalty = clampPct(g.Loyalty)
}

// DamageWall removes up to n wall integrity and returns the amount removed.
func (g *Garrison) DamageWall(n int) int {
	if n <= 0 {
		return 0
	}
	lost := min(n, g.Wall)
	g.Wall -= lost
	return lost
}

// RestoreWall adds up to n wall integrity without exceeding MaxWall and
// returns the amount restored.
func (g *Garrison) RestoreWall(n int) int {
	if n <= 0 {
		return 0
	}
	gained := min(n, g.MaxWall-g.Wall)
	g.Wall += gained
	return gained
}

// WallRatio returns Wall/MaxWall, or 0 when MaxWall is 0.
func (g *Garrison) WallRatio() float64 {
	if g.MaxWall == 0 {
		return 0
	}
	return float64(g.Wall) / float64(g.MaxWall)
}

// BestRetreat returns the highest-scoring retreat option, or false if none exist.
func (g *Garrison) BestRetreat() (RetreatOption, bool) {
	if len(g.Retreats) == 0 {
		return RetreatOption{}, false
	}
	best := g.Retreats[0]
	for _, r := range g.Retreats[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, true
}

// RetreatTo returns the option for strongholdID, or false if it is not adjacent.
func (g *Garrison) RetreatTo(strongholdID string) (RetreatOption, bool) {
	for _, r := range g.Retreats {
		if r.StrongholdID == strongholdID {
			return r, true
		}
	}
	return RetreatOption{}, false
}

// Clone returns a deep copy of g.
func (g *Garrison) Clone() *Garrison {
	cp := *g
	cp.Force = *g.Force.Clone()
	cp.Retreats = append([]RetreatOption(nil), g.Retreats...)
	return &cp
}
