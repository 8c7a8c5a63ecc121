package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM per zone ID, loading that zone's spot
// action scripts on first use. Single-goroutine access per VM; callers from
// the tick worker pool serialize through vmMu.
type Engine struct {
	scriptsDir string
	log        *zap.Logger

	vmMu sync.Mutex
	vms  map[int32]*lua.LState // zoneID -> loaded VM
}

// NewEngine creates a scripting engine rooted at scriptsDir. Zone scripts are
// loaded lazily per zone on first RunSpotAction call rather than eagerly,
// since the registered zone set isn't known until the Definition Registry
// has loaded.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	return &Engine{
		scriptsDir: scriptsDir,
		log:        log,
		vms:        make(map[int32]*lua.LState),
	}, nil
}

// ActionContext carries the data a spot enter/leave script needs: the entity
// that triggered the spot and enough zone identity to let the script look up
// further state via registered host functions.
type ActionContext struct {
	EntityID     int32
	ZoneID       int32
	DynamicMapID int32
	InstanceID   int32
	X, Y, Rot    float32
}

// Phase names a spot's action direction; it is the suffix of the
// spot_<spotID>_<phase> Lua function a zone script defines.
const (
	PhaseEnter = "enter"
	PhaseLeave = "leave"
)

// RunSpotAction loads (if not already loaded) every .lua file in the zone's
// directory <scriptsDir>/<zoneID>/ and calls the global function
// spot_<spotID>_<phase> with an argument table built from ctx. A missing
// directory or an undefined function is not an error: a spot with no
// server-side action for that phase is the common case.
func (e *Engine) RunSpotAction(zoneID, spotID int32, phase string, ctx *ActionContext) error {
	e.vmMu.Lock()
	defer e.vmMu.Unlock()

	vm, err := e.zoneVM(zoneID)
	if err != nil {
		return fmt.Errorf("load zone %d scripts: %w", zoneID, err)
	}

	fnName := spotFuncName(spotID, phase)
	fn := vm.GetGlobal(fnName)
	if fn == lua.LNil {
		return nil // spot has no action registered for this phase
	}

	argT := vm.NewTable()
	argT.RawSetString("entity_id", lua.LNumber(ctx.EntityID))
	argT.RawSetString("zone_id", lua.LNumber(ctx.ZoneID))
	argT.RawSetString("dynamic_map_id", lua.LNumber(ctx.DynamicMapID))
	argT.RawSetString("instance_id", lua.LNumber(ctx.InstanceID))
	argT.RawSetString("x", lua.LNumber(ctx.X))
	argT.RawSetString("y", lua.LNumber(ctx.Y))
	argT.RawSetString("rot", lua.LNumber(ctx.Rot))

	if err := vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, argT); err != nil {
		return fmt.Errorf("spot action %s: %w", fnName, err)
	}
	return nil
}

// spotFuncName is the global Lua function a spot/phase script must define,
// e.g. spot_1042_enter for spotID 1042's enter action.
func spotFuncName(spotID int32, phase string) string {
	return "spot_" + strconv.Itoa(int(spotID)) + "_" + phase
}

// zoneVM returns the loaded VM for zoneID, loading scripts/zone/<zoneID>/
// on first request. Callers must hold vmMu.
func (e *Engine) zoneVM(zoneID int32) (*lua.LState, error) {
	if vm, ok := e.vms[zoneID]; ok {
		return vm, nil
	}

	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	dir := filepath.Join(e.scriptsDir, strconv.Itoa(int(zoneID)))
	if err := e.loadDir(vm, dir); err != nil {
		vm.Close()
		return nil, err
	}

	e.vms[zoneID] = vm
	return vm, nil
}

// loadDir loads every .lua file directly under dir into vm. Matches the
// teacher's loadDir convention: missing directories are not errors, a zone
// with no scripts simply runs no spot actions.
func (e *Engine) loadDir(vm *lua.LState, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded spot action script", zap.String("file", path))
	}
	return nil
}

// Close shuts down every loaded zone VM.
func (e *Engine) Close() {
	e.vmMu.Lock()
	defer e.vmMu.Unlock()
	for id, vm := range e.vms {
		vm.Close()
		delete(e.vms, id)
	}
}
