package scripting

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lanternmud/lantern/internal/game/world"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".lua"), []byte(body), 0644))
}

func testRoom(behaviors ...string) (world.RoomConfig, *world.Room) {
	cfg := world.RoomConfig{
		Title:       world.PlainText("Square"),
		Description: world.PlainText("A stone square."),
		Location:    "1001",
		Behaviors:   behaviors,
		Area:        "village",
	}
	return cfg, world.NewRoom(cfg)
}

func TestAttacher_HooksBecomeListeners(t *testing.T) {
	scriptDir := t.TempDir()
	writeScript(t, scriptDir, "greeter", `
function on_enter(who)
  engine.broadcast("Welcome, " .. who)
end

function on_leave(who)
  engine.broadcast("Farewell, " .. who)
end
`)

	a := NewAttacher(zap.NewNop(), 0)
	defer a.Close()

	var sent []string
	a.Broadcast = func(loc world.Location, msg string) {
		assert.Equal(t, world.Location("1001"), loc)
		sent = append(sent, msg)
	}

	cfg, room := testRoom("greeter")
	require.NoError(t, a.Attach(cfg, "", scriptDir, room))

	assert.Equal(t, 1, room.ListenerCount("enter"))
	assert.Equal(t, 1, room.ListenerCount("leave"))

	room.Emit("enter", "bob")
	room.Emit("leave", "bob")
	assert.Equal(t, []string{"Welcome, bob", "Farewell, bob"}, sent)
}

func TestAttacher_RoomContextExposedToScript(t *testing.T) {
	scriptDir := t.TempDir()
	writeScript(t, scriptDir, "signpost", `
function on_look(_)
  engine.broadcast(room.area .. "/" .. room.location)
end
`)

	a := NewAttacher(zap.NewNop(), 0)
	defer a.Close()

	var got string
	a.Broadcast = func(_ world.Location, msg string) { got = msg }

	cfg, room := testRoom("signpost")
	require.NoError(t, a.Attach(cfg, "l10n/rooms", scriptDir, room))

	room.Emit("look", nil)
	assert.Equal(t, "village/1001", got)
}

func TestAttacher_MissingScriptFails(t *testing.T) {
	a := NewAttacher(zap.NewNop(), 0)
	defer a.Close()

	cfg, room := testRoom("no_such_behavior")
	err := a.Attach(cfg, "", t.TempDir(), room)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_behavior")
}

func TestAttacher_ScriptErrorFails(t *testing.T) {
	scriptDir := t.TempDir()
	writeScript(t, scriptDir, "broken", `this is not lua`)

	a := NewAttacher(zap.NewNop(), 0)
	defer a.Close()

	cfg, room := testRoom("broken")
	assert.Error(t, a.Attach(cfg, "", scriptDir, room))
}

func TestAttacher_NoBehaviorsNoOp(t *testing.T) {
	a := NewAttacher(zap.NewNop(), 0)
	defer a.Close()

	cfg, room := testRoom()
	require.NoError(t, a.Attach(cfg, "", t.TempDir(), room))
	assert.Equal(t, 0, room.ListenerCount("enter"))
}

func TestAttacher_RuntimeErrorDoesNotPropagate(t *testing.T) {
	scriptDir := t.TempDir()
	writeScript(t, scriptDir, "faulty", `
function on_enter(_)
  error("boom")
end
`)

	a := NewAttacher(zap.NewNop(), 0)
	defer a.Close()

	cfg, room := testRoom("faulty")
	require.NoError(t, a.Attach(cfg, "", scriptDir, room))

	// The emit must survive the Lua error.
	room.Emit("enter", "bob")
}

func TestAttacher_HooksSurviveManyEvents(t *testing.T) {
	scriptDir := t.TempDir()
	writeScript(t, scriptDir, "greeter", `
function on_enter(who)
  engine.broadcast("Welcome, " .. who)
end
`)

	// A tight per-run allowance. Rooms live for the whole process, so the
	// allowance must renew per event; otherwise the hooks go dead once the
	// emits have spent it.
	a := NewAttacher(zap.NewNop(), 500)
	defer a.Close()

	var sent int
	a.Broadcast = func(world.Location, string) { sent++ }

	cfg, room := testRoom("greeter")
	require.NoError(t, a.Attach(cfg, "", scriptDir, room))

	for i := 0; i < 1000; i++ {
		room.Emit("enter", "bob")
	}
	assert.Equal(t, 1000, sent)
}

func TestAttacher_BehaviorWithNoHooksAttachesNothing(t *testing.T) {
	scriptDir := t.TempDir()
	writeScript(t, scriptDir, "inert", `local x = 1 + 1`)

	a := NewAttacher(zap.NewNop(), 0)
	defer a.Close()

	cfg, room := testRoom("inert")
	require.NoError(t, a.Attach(cfg, "", scriptDir, room))
	assert.Equal(t, 0, room.ListenerCount("enter"))
}

func TestAttacher_LoaderIntegration(t *testing.T) {
	scriptDir := t.TempDir()
	writeScript(t, scriptDir, "greeter", `
function on_enter(who)
  engine.broadcast("Welcome, " .. who)
end
`)

	root := t.TempDir()
	areaDir := filepath.Join(root, "village")
	require.NoError(t, os.MkdirAll(areaDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(areaDir, "manifest.yml"),
		[]byte("village:\n  title: Village\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(areaDir, "rooms.yml"), []byte(`
1:
  title: "Square"
  description: "A stone square."
  location: 1001
  behaviors:
    - greeter
`), 0644))

	a := NewAttacher(zap.NewNop(), 0)
	defer a.Close()
	var sent []string
	a.Broadcast = func(_ world.Location, msg string) { sent = append(sent, msg) }

	loader := world.NewLoader(world.LoaderConfig{
		Root:      root,
		ScriptDir: scriptDir,
	}, a, zap.NewNop())

	idx, err := loader.Load(context.Background(), nil)
	require.NoError(t, err)

	room, ok := idx.RoomAt("1001")
	require.True(t, ok)
	room.Emit("enter", "alice")
	assert.Equal(t, []string{"Welcome, alice"}, sent)
}
