package scripting

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/hearthsim/hearth/internal/core/ecs"
	"github.com/hearthsim/hearth/internal/core/event"
	"github.com/hearthsim/hearth/internal/core/system"
	"github.com/hearthsim/hearth/internal/core/world"
)

var ErrBadScript = eris.New("bad system script")

// ScriptSystem is a System whose behaviour lives in a Lua file. The file
// returns a table:
//
//	return {
//	  name = "thirst",
//	  requires = { "thirst" },
//	  init = function() end,            -- optional
//	  update = function(dt, entities) end,
//	  shutdown = function() end,        -- optional
//	}
//
// Each script gets its own VM. Access is single-goroutine (the frame loop).
type ScriptSystem struct {
	system.Base
	path  string
	world *world.World
	vm    *lua.LState
	def   *lua.LTable
	log   *zap.Logger
}

// LoadScript compiles a system script bound to w.
func LoadScript(path string, w *world.World, log *zap.Logger) (*ScriptSystem, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm, def, name, requires, err := compile(path, w, log)
	if err != nil {
		return nil, err
	}
	s := &ScriptSystem{
		Base:  system.NewBase(name, requires...),
		path:  path,
		world: w,
		vm:    vm,
		def:   def,
	}
	s.log = log.With(zap.String("system", name), zap.String("script", path))
	return s, nil
}

// LoadDir loads every .lua file in dir, sorted by file name. A missing
// directory yields no systems.
func LoadDir(dir string, w *world.World, log *zap.Logger) ([]*ScriptSystem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "read scripts %s", dir)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	out := make([]*ScriptSystem, 0, len(names))
	for _, name := range names {
		s, err := LoadScript(filepath.Join(dir, name), w, log)
		if err != nil {
			for _, loaded := range out {
				loaded.Close()
			}
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func compile(path string, w *world.World, log *zap.Logger) (*lua.LState, *lua.LTable, string, []ecs.ComponentType, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("world", newWorldModule(vm, w, log))

	if err := vm.DoFile(path); err != nil {
		vm.Close()
		return nil, nil, "", nil, eris.Wrapf(err, "load %s", path)
	}
	def, ok := vm.Get(-1).(*lua.LTable)
	vm.Pop(1)
	if !ok {
		vm.Close()
		return nil, nil, "", nil, eris.Wrapf(ErrBadScript, "%s: must return a table", path)
	}
	name, ok := def.RawGetString("name").(lua.LString)
	if !ok || name == "" {
		vm.Close()
		return nil, nil, "", nil, eris.Wrapf(ErrBadScript, "%s: missing name", path)
	}
	if _, ok := def.RawGetString("update").(*lua.LFunction); !ok {
		vm.Close()
		return nil, nil, "", nil, eris.Wrapf(ErrBadScript, "%s: missing update function", path)
	}

	var requires []ecs.ComponentType
	if t, ok := def.RawGetString("requires").(*lua.LTable); ok {
		for i := 1; i <= t.Len(); i++ {
			requires = append(requires, ecs.ComponentType(t.RawGetInt(i).String()))
		}
	}
	return vm, def, string(name), requires, nil
}

func (s *ScriptSystem) Path() string { return s.path }

func (s *ScriptSystem) OnInitialize() {
	s.callOptional("init")
}

func (s *ScriptSystem) OnShutdown() {
	s.callOptional("shutdown")
}

func (s *ScriptSystem) Update(dt time.Duration) {
	if s.vm == nil {
		return
	}
	ids := s.Entities()
	entities := s.vm.CreateTable(len(ids), 0)
	for _, id := range ids {
		entities.Append(lua.LNumber(id))
	}
	if err := s.vm.CallByParam(lua.P{
		Fn:      s.def.RawGetString("update"),
		NRet:    0,
		Protect: true,
	}, lua.LNumber(dt.Seconds()), entities); err != nil {
		s.log.Error("lua update error", zap.Uint64("frame", s.world.Frame()), zap.Error(err))
	}
}

// Reload re-reads the script into a fresh VM. The name and required
// components are fixed at registration, so a script that changes them is
// rejected and the running version is kept.
func (s *ScriptSystem) Reload() error {
	vm, def, name, requires, err := compile(s.path, s.world, s.log)
	if err != nil {
		return err
	}
	if name != s.Name() || !sameTypes(requires, s.RequiredComponents()) {
		vm.Close()
		return eris.Wrapf(ErrBadScript, "%s: name or requires changed on reload", s.path)
	}
	if s.vm != nil {
		s.vm.Close()
	}
	s.vm, s.def = vm, def
	s.log.Info("script reloaded")
	return nil
}

// Close releases the VM. The system does nothing afterwards.
func (s *ScriptSystem) Close() {
	if s.vm != nil {
		s.vm.Close()
		s.vm, s.def = nil, nil
	}
}

func (s *ScriptSystem) callOptional(fn string) {
	if s.vm == nil {
		return
	}
	f, ok := s.def.RawGetString(fn).(*lua.LFunction)
	if !ok {
		return
	}
	if err := s.vm.CallByParam(lua.P{Fn: f, NRet: 0, Protect: true}); err != nil {
		s.log.Error("lua "+fn+" error", zap.Error(err))
	}
}

func sameTypes(a, b []ecs.ComponentType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// newWorldModule exposes the World API to scripts as the global `world`.
func newWorldModule(L *lua.LState, w *world.World, log *zap.Logger) *lua.LTable {
	entity := func(L *lua.LState, n int) ecs.EntityID {
		return ecs.EntityID(uint64(L.CheckNumber(n)))
	}
	payload := func(L *lua.LState, n int) any {
		if L.GetTop() < n {
			return nil
		}
		v, err := fromLua(L.Get(n))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return v
	}

	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"create": func(L *lua.LState) int {
			L.Push(lua.LNumber(w.CreateEntity()))
			return 1
		},
		"destroy": func(L *lua.LState) int {
			L.Push(lua.LBool(w.DestroyEntity(entity(L, 1))))
			return 1
		},
		"mark": func(L *lua.LState) int {
			w.MarkForDestruction(entity(L, 1))
			return 0
		},
		"alive": func(L *lua.LState) int {
			L.Push(lua.LBool(w.Alive(entity(L, 1))))
			return 1
		},
		"get": func(L *lua.LState) int {
			v, ok := w.GetComponent(entity(L, 1), ecs.ComponentType(L.CheckString(2)))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(toLua(L, v))
			return 1
		},
		"set": func(L *lua.LState) int {
			change := w.AddComponent(entity(L, 1), ecs.ComponentType(L.CheckString(2)), payload(L, 3))
			L.Push(lua.LString(change.String()))
			return 1
		},
		"has": func(L *lua.LState) int {
			L.Push(lua.LBool(w.HasComponent(entity(L, 1), ecs.ComponentType(L.CheckString(2)))))
			return 1
		},
		"remove": func(L *lua.LState) int {
			L.Push(lua.LBool(w.RemoveComponent(entity(L, 1), ecs.ComponentType(L.CheckString(2)))))
			return 1
		},
		"entities": func(L *lua.LState) int {
			L.Push(toLua(L, w.EntitiesWith(ecs.ComponentType(L.CheckString(1)))))
			return 1
		},
		"emit": func(L *lua.LState) int {
			w.Events().Emit(event.Event{Type: L.CheckString(1), Payload: payload(L, 2)})
			return 0
		},
		"queue": func(L *lua.LState) int {
			w.Events().Queue(event.Event{Type: L.CheckString(1), Payload: payload(L, 2)})
			return 0
		},
		"frame": func(L *lua.LState) int {
			L.Push(lua.LNumber(w.Frame()))
			return 1
		},
		"log": func(L *lua.LState) int {
			log.Info(L.CheckString(1), zap.String("source", "lua"))
			return 0
		},
	})
}
