package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()

	require.NoError(t, L.DoString(`
		x = string.upper("abc")
		y = math.max(1, 2)
		t = {}
		table.insert(t, x)
	`))
	assert.Equal(t, "ABC", lua.LVAsString(L.GetGlobal("x")))
}

func TestNewSandboxedState_DangerousGlobalsRemoved(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "global %q must be removed", name)
	}
}

func TestNewSandboxedState_NoIOOrOSLibs(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()

	assert.Equal(t, lua.LNil, L.GetGlobal("io"))
	assert.Equal(t, lua.LNil, L.GetGlobal("os"))
}

func TestRunMetered_TerminatesRunawayScript(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()

	err := RunMetered(L, 1000, func() error {
		return L.DoString(`while true do end`)
	})
	require.Error(t, err)
}

func TestRunMetered_AllowsBoundedScript(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()

	require.NoError(t, RunMetered(L, 100_000, func() error {
		return L.DoString(`
			sum = 0
			for i = 1, 100 do sum = sum + i end
		`)
	}))
	assert.Equal(t, lua.LNumber(5050), L.GetGlobal("sum"))
}

func TestRunMetered_AllowanceRenewsPerRun(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()

	// The runs together spend far more than one allowance. With a renewed
	// allowance per run every iteration succeeds; a cumulative budget
	// would kill the state partway through.
	script := `
		sum = 0
		for i = 1, 100 do sum = sum + i end
	`
	for run := 0; run < 50; run++ {
		require.NoError(t, RunMetered(L, 5000, func() error {
			return L.DoString(script)
		}), "run %d", run)
		assert.Equal(t, lua.LNumber(5050), L.GetGlobal("sum"))
	}
}

func TestRunMetered_StateUsableAfterExhaustion(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()

	require.Error(t, RunMetered(L, 500, func() error {
		return L.DoString(`while true do end`)
	}))

	require.NoError(t, RunMetered(L, 0, func() error {
		return L.DoString(`answer = 42`)
	}))
	assert.Equal(t, lua.LNumber(42), L.GetGlobal("answer"))
}
