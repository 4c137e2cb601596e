package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/dice"
)

// globalID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no doctrine VM is found.
const globalID = "__global__"

// vm is one LState and the mutex serialising calls into it.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel func()
	limit  int
}

// Manager owns one sandboxed LState per doctrine and exposes hook dispatch.
//
// Manager is safe for concurrent use. Each LState is single-threaded; calls
// into the same VM are serialised while different VMs run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadDoctrine creates a sandboxed VM for doctrineID, registers the doctrine
// module, then executes every *.lua file in scriptDir in lexicographic order.
// Loading the same ID again replaces the previous VM.
//
// Precondition: doctrineID must be non-empty; scriptDir must be a readable directory.
// Postcondition: the VM is registered; returns error on Lua load failure.
func (m *Manager) LoadDoctrine(doctrineID, scriptDir string, instLimit int) error {
	return m.loadInto(doctrineID, scriptDir, instLimit)
}

// LoadGlobal creates the shared VM used as a CallHook fallback from any doctrine.
//
// Precondition: scriptDir must be a readable directory.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalID, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}
	cancel()

	m.mu.Lock()
	if old, ok := m.vms[key]; ok {
		old.close()
	}
	m.vms[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	m.logger.Debug("scripting: loaded",
		zap.String("doctrine", key),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	v.L.Close()
}

func (m *Manager) vmFor(id string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[id]; ok {
		return v
	}
	return m.vms[globalID]
}

// CallHook calls the named Lua global function in doctrineID's VM, falling
// back to the global VM. Returns (LNil, nil) if the hook is not defined or no
// VM exists. Lua runtime errors, including an exhausted instruction budget,
// are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(doctrineID, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(doctrineID, hook, func(*lua.LState) []lua.LValue { return args })
}

// CallWithFacts calls hook with a single table argument built from facts.
func (m *Manager) CallWithFacts(doctrineID, hook string, facts map[string]float64) (lua.LValue, error) {
	return m.call(doctrineID, hook, func(L *lua.LState) []lua.LValue {
		t := L.NewTable()
		for k, v := range facts {
			t.RawSetString(k, lua.LNumber(v))
		}
		return []lua.LValue{t}
	})
}

func (m *Manager) call(doctrineID, hook string, args func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	v := m.vmFor(doctrineID)
	if v == nil {
		m.logger.Info("scripting: no VM for doctrine",
			zap.String("doctrine", doctrineID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L
	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	v.cancel = Budget(L, v.limit)
	defer func() {
		v.cancel()
		v.cancel = nil
	}()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args(L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("doctrine", doctrineID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM. CallHook afterwards returns LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.vms {
		v.close()
		delete(m.vms, id)
	}
}
