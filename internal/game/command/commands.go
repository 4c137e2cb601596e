// Package command provides the command registry, parser, and the resolver
// that turns typed battle commands into engine submissions.
package command

// Phases group commands by the battle they apply to.
const (
	PhaseSiege  = "siege"
	PhaseField  = "field"
	PhaseSystem = "system"
)

// Handler identifiers mapping commands to the engine call they produce.
const (
	HandlerSiegeAction = "siege_action"
	HandlerMove        = "move"
	HandlerFace        = "face"
	HandlerAttack      = "attack"
	HandlerEndTurn     = "end"
	HandlerStatus      = "status"
	HandlerHelp        = "help"
)

// Command defines a command a commander may issue.
type Command struct {
	// Name is the canonical command name. For siege actions it is also the
	// action's canonical name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Help is the short help text displayed to players.
	Help string
	// Usage shows the argument form, if any.
	Usage string
	// Phase is the battle the command applies to.
	Phase string
	// Handler maps to the engine call the command produces.
	Handler string
}

// BuiltinCommands returns every battle command.
func BuiltinCommands() []Command {
	return []Command{
		// Siege commands
		{Name: "charge", Aliases: []string{"ch", "assault"}, Help: "Storm the walls with the main body", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "ranged", Aliases: []string{"rg", "volley", "fire"}, Help: "Exchange missile fire", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "siege", Aliases: []string{"engines", "batter"}, Help: "Batter the walls with siege engines", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "arson", Aliases: []string{"burn"}, Help: "Set fire to the enemy's works", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "sabotage", Aliases: []string{"sab"}, Help: "Send agents to sow disorder", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "retreat", Aliases: []string{"withdraw", "flee"}, Usage: "retreat [stronghold]", Help: "Abandon the fight; a garrison may name its refuge", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "skip", Aliases: []string{"wait", "pass"}, Help: "Do nothing this turn", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "sortie-charge", Aliases: []string{"sortie", "sally"}, Help: "Sally out against the besiegers", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "hold", Aliases: []string{"def_attack", "fortify", "brace"}, Help: "Brace the walls; halves the next assault", Phase: PhaseSiege, Handler: HandlerSiegeAction},
		{Name: "repair", Aliases: []string{"mend"}, Help: "Put soldiers to work on the walls", Phase: PhaseSiege, Handler: HandlerSiegeAction},

		// Field commands
		{Name: "move", Aliases: []string{"mv", "go"}, Usage: "move <q> <r>", Help: "March to a reachable hex", Phase: PhaseField, Handler: HandlerMove},
		{Name: "face", Aliases: []string{"turn"}, Usage: "face <e|ne|nw|w|sw|se>", Help: "Wheel the formation to a new facing", Phase: PhaseField, Handler: HandlerFace},
		{Name: "attack", Aliases: []string{"att", "strike"}, Help: "Strike the adjacent enemy (1 AP)", Phase: PhaseField, Handler: HandlerAttack},
		{Name: "end", Aliases: []string{"endturn", "done"}, Help: "End this activation", Phase: PhaseField, Handler: HandlerEndTurn},

		// System commands
		{Name: "status", Aliases: []string{"st"}, Help: "Show the state of the battle", Phase: PhaseSystem, Handler: HandlerStatus},
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Phase: PhaseSystem, Handler: HandlerHelp},
	}
}
