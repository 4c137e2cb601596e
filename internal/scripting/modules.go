package scripting

import (
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the doctrine.* Lua table into L:
//
//	doctrine.chance(p)         true with probability p, drawn from the manager's roller
//	doctrine.clamp(v, lo, hi)  v limited to [lo, hi]
//	doctrine.log(msg)          debug log line
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"chance": func(L *lua.LState) int {
			p := float64(L.CheckNumber(1))
			L.Push(lua.LBool(m.roller.Chance("lua chance", p)))
			return 1
		},
		"clamp": func(L *lua.LState) int {
			v := float64(L.CheckNumber(1))
			lo := float64(L.CheckNumber(2))
			hi := float64(L.CheckNumber(3))
			L.Push(lua.LNumber(math.Min(math.Max(v, lo), hi)))
			return 1
		},
		"log": func(L *lua.LState) int {
			m.logger.Debug("scripting: doctrine log", zap.String("msg", L.CheckString(1)))
			return 0
		},
	})
	L.SetGlobal("doctrine", mod)
}
