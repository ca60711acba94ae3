package scripting

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/lanternmud/lantern/internal/game/world"
)

var _ world.BehaviorAttacher = (*Attacher)(nil)

// Attacher implements world.BehaviorAttacher with sandboxed Lua VMs. Each
// behavior named by a room record resolves by convention to
// <scriptDir>/<name>.lua; every global on_<event> function the script defines
// becomes a listener on the room's emitter.
//
// One VM is created per attached behavior and lives for the process. A
// per-behavior lock serializes listener invocations, so emitting on the same
// room from multiple goroutines is safe. Script loads and hook invocations
// each run under their own opcode allowance, so a runaway hook is cut off
// without starving later events on the same VM.
type Attacher struct {
	logger *zap.Logger
	limit  int

	mu     sync.Mutex
	states []*lua.LState

	// Injected after construction. nil = no-op in engine.* functions.
	Broadcast func(location world.Location, msg string)
}

// NewAttacher creates an Attacher.
//
// Precondition: logger must be non-nil. instLimit caps Lua opcodes per
// metered run; 0 uses DefaultInstructionLimit.
func NewAttacher(logger *zap.Logger, instLimit int) *Attacher {
	return &Attacher{logger: logger, limit: instLimit}
}

// Attach loads every behavior named by the room record and wires its
// on_<event> hooks onto the room. A failing behavior aborts attachment for
// the room and is reported to the loader, which logs and keeps the room.
func (a *Attacher) Attach(cfg world.RoomConfig, l10nDir, scriptDir string, room *world.Room) error {
	for _, name := range cfg.Behaviors {
		if err := a.attachBehavior(name, l10nDir, scriptDir, room); err != nil {
			return fmt.Errorf("behavior %q for room %s: %w", name, cfg.Location, err)
		}
	}
	return nil
}

func (a *Attacher) attachBehavior(name, l10nDir, scriptDir string, room *world.Room) error {
	path := filepath.Join(scriptDir, name+".lua")

	L := NewSandboxedState()
	a.registerModules(L, l10nDir, room)

	if err := RunMetered(L, a.limit, func() error { return L.DoFile(path) }); err != nil {
		L.Close()
		return fmt.Errorf("loading %s: %w", path, err)
	}

	// Every global on_<event> function the script defined becomes a listener.
	vmLock := &sync.Mutex{}
	hooks := 0
	L.G.Global.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok || !strings.HasPrefix(string(key), "on_") {
			return
		}
		fn, ok := v.(*lua.LFunction)
		if !ok {
			return
		}
		event := strings.TrimPrefix(string(key), "on_")
		room.On(event, a.listener(L, vmLock, fn, event, room))
		hooks++
	})

	if hooks == 0 {
		L.Close()
		a.logger.Debug("behavior defines no hooks",
			zap.String("behavior", name),
			zap.String("location", string(room.Location())),
		)
		return nil
	}

	a.mu.Lock()
	a.states = append(a.states, L)
	a.mu.Unlock()

	a.logger.Debug("attached behavior",
		zap.String("behavior", name),
		zap.String("location", string(room.Location())),
		zap.Int("hooks", hooks),
	)
	return nil
}

// listener wraps a Lua hook as a world.ListenerFunc. Lua runtime errors are
// logged at Warn level and never propagated.
func (a *Attacher) listener(L *lua.LState, vmLock *sync.Mutex, fn *lua.LFunction, event string, room *world.Room) world.ListenerFunc {
	return func(payload any) {
		vmLock.Lock()
		defer vmLock.Unlock()
		err := RunMetered(L, a.limit, func() error {
			return L.CallByParam(lua.P{
				Fn:      fn,
				NRet:    0,
				Protect: true,
			}, toLua(L, payload))
		})
		if err != nil {
			a.logger.Warn("lua runtime error",
				zap.String("event", event),
				zap.String("location", string(room.Location())),
				zap.Error(err),
			)
		}
	}
}

// registerModules exposes the engine surface to a behavior script: a "room"
// table with the room's identity, the l10n script directory, and the engine.*
// callback functions.
func (a *Attacher) registerModules(L *lua.LState, l10nDir string, room *world.Room) {
	roomTbl := L.NewTable()
	L.SetField(roomTbl, "location", lua.LString(room.Location()))
	L.SetField(roomTbl, "area", lua.LString(room.Area()))
	L.SetGlobal("room", roomTbl)

	L.SetGlobal("l10n_dir", lua.LString(l10nDir))

	engine := L.NewTable()
	L.SetField(engine, "broadcast", L.NewFunction(func(ls *lua.LState) int {
		msg := ls.CheckString(1)
		if a.Broadcast != nil {
			a.Broadcast(room.Location(), msg)
		}
		return 0
	}))
	L.SetField(engine, "log", L.NewFunction(func(ls *lua.LState) int {
		msg := ls.CheckString(1)
		a.logger.Info("script log",
			zap.String("location", string(room.Location())),
			zap.String("msg", msg),
		)
		return 0
	}))
	L.SetGlobal("engine", engine)
}

// toLua converts an event payload into a Lua value. Unrecognized types are
// passed as their string form.
func toLua(L *lua.LState, payload any) lua.LValue {
	switch v := payload.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(v)
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case world.Location:
		return lua.LString(v)
	case map[string]string:
		tbl := L.NewTable()
		for k, s := range v {
			L.SetField(tbl, k, lua.LString(s))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// Close shuts down every behavior VM. Call only at process teardown, after
// no more events will be emitted.
func (a *Attacher) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, L := range a.states {
		L.Close()
	}
	a.states = nil
}
