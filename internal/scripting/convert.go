package scripting

import (
	"sort"

	"github.com/rotisserie/eris"
	lua "github.com/yuin/gopher-lua"

	"github.com/hearthsim/hearth/internal/core/ecs"
)

// toLua converts a component or event payload into a Lua value. Maps, slices
// and scalars become tables and primitives; anything else (typed Go
// components) is passed through as userdata so scripts can hand it back.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int32:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint32:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case ecs.EntityID:
		return lua.LNumber(x)
	case ecs.ComponentType:
		return lua.LString(x)
	case []any:
		t := L.CreateTable(len(x), 0)
		for _, item := range x {
			t.Append(toLua(L, item))
		}
		return t
	case []ecs.EntityID:
		t := L.CreateTable(len(x), 0)
		for _, id := range x {
			t.Append(lua.LNumber(id))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(x))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, x[k]))
		}
		return t
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// maxTableDepth bounds how deeply nested a table handed to the World may be.
const maxTableDepth = 32

var errTableCycle = eris.New("table refers to itself")

// fromLua converts a Lua value into plain Go data. Tables with only a
// 1..n sequence become []any, other tables map[string]any. Self-referencing
// or overly deep tables are rejected.
func fromLua(v lua.LValue) (any, error) {
	return fromLuaValue(v, make(map[*lua.LTable]struct{}), 0)
}

func fromLuaValue(v lua.LValue, seen map[*lua.LTable]struct{}, depth int) (any, error) {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(x), nil
	case lua.LNumber:
		return float64(x), nil
	case lua.LString:
		return string(x), nil
	case *lua.LUserData:
		return x.Value, nil
	case *lua.LTable:
		if _, ok := seen[x]; ok {
			return nil, errTableCycle
		}
		if depth >= maxTableDepth {
			return nil, eris.Errorf("table nested deeper than %d levels", maxTableDepth)
		}
		seen[x] = struct{}{}
		defer delete(seen, x)

		if n := x.Len(); n > 0 && isSequence(x, n) {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				item, err := fromLuaValue(x.RawGetInt(i), seen, depth+1)
				if err != nil {
					return nil, err
				}
				out = append(out, item)
			}
			return out, nil
		}
		out := make(map[string]any)
		var err error
		x.ForEach(func(k, val lua.LValue) {
			if err != nil {
				return
			}
			var item any
			if item, err = fromLuaValue(val, seen, depth+1); err == nil {
				out[k.String()] = item
			}
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return x.String(), nil
	}
}

func isSequence(t *lua.LTable, n int) bool {
	count := 0
	seq := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if _, ok := k.(lua.LNumber); !ok {
			seq = false
		}
	})
	return seq && count == n
}
