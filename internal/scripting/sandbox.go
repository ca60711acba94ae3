// Package scripting provides the sandboxed GopherLua runtime that attaches
// scripted room behaviors at load time. It knows nothing about behavior
// implementations; scripts subscribe to room events by defining on_<event>
// global functions, and all engine interactions are injected via Attacher
// callback fields.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the Lua opcode allowance for a single metered
// run when no override is configured.
const DefaultInstructionLimit = 100_000

// opcodeMeter is a context.Context that cancels itself once its allowance is
// spent. GopherLua polls Done() on every opcode when the state carries a
// context, so the allowance is an exact opcode count.
type opcodeMeter struct {
	context.Context
	stop context.CancelFunc
	left atomic.Int64
}

func (m *opcodeMeter) Done() <-chan struct{} {
	if m.left.Add(-1) <= 0 {
		m.stop()
	}
	return m.Context.Done()
}

// NewSandboxedState creates a GopherLua state restricted to the base, table,
// string, and math libraries, with the base globals that reach the loader or
// the filesystem removed. The state carries no opcode allowance of its own;
// run scripts and hooks through RunMetered. The caller owns the state and
// must Close it.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range [...]string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L
}

// RunMetered executes fn with a fresh opcode allowance installed on L and
// removes it afterward. Behavior VMs live as long as their room, so each
// script load and each hook invocation gets its own full allowance rather
// than draining one budget across the VM's lifetime. A limit of zero or less
// uses DefaultInstructionLimit.
//
// A run that exhausts its allowance returns the VM's cancellation error; the
// state itself stays usable for the next metered run.
func RunMetered(L *lua.LState, limit int, fn func() error) error {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	base, stop := context.WithCancel(context.Background())
	m := &opcodeMeter{Context: base, stop: stop}
	m.left.Store(int64(limit))

	L.SetContext(m)
	defer func() {
		L.RemoveContext()
		stop()
	}()
	return fn()
}
