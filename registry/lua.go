package registry

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LoadLua runs the script at path with register_command and
// register_environment bound to r. The script runs without the io, os and
// module-loading libraries.
//
//	register_command{name = "todo", args = 1, visibility = "replace", template = "☐ #1"}
//	register_environment{name = "theorem", line_class = "environment-theorem"}
func LoadLua(r *Registry, path string) error {
	L := newState(r)
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("registry: load %s: %w", path, err)
	}
	return nil
}

// LoadLuaString is LoadLua for an in-memory script.
func LoadLuaString(r *Registry, src string) error {
	L := newState(r)
	defer L.Close()
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("registry: load script: %w", err)
	}
	return nil
}

func newState(r *Registry) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("register_command", L.NewFunction(func(L *lua.LState) int {
		spec, err := commandFromTable(L.CheckTable(1))
		if err == nil {
			err = r.RegisterCommand(spec)
		}
		if err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	L.SetGlobal("register_environment", L.NewFunction(func(L *lua.LState) int {
		spec, err := environmentFromTable(L.CheckTable(1))
		if err == nil {
			err = r.RegisterEnvironment(spec)
		}
		if err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	return L
}

func commandFromTable(t *lua.LTable) (CommandSpec, error) {
	spec := CommandSpec{
		Name:           tableString(t, "name"),
		ArgCount:       tableInt(t, "args"),
		OptionalArgs:   tableInt(t, "optional"),
		EmptyGroup:     tableBool(t, "empty_group"),
		RenderTemplate: tableString(t, "template"),
		Class:          tableString(t, "class"),
		Icon:           tableString(t, "icon"),
		LineClass:      tableString(t, "line_class"),
		Level:          tableInt(t, "level"),
		Toolbar:        tableBool(t, "toolbar"),
	}
	if s := tableString(t, "visibility"); s != "" {
		v, err := ParseVisibility(s)
		if err != nil {
			return spec, err
		}
		spec.Visibility = v
	}
	w, err := ParseWidget(tableString(t, "widget"))
	if err != nil {
		return spec, err
	}
	spec.Widget = w
	return spec, nil
}

func environmentFromTable(t *lua.LTable) (EnvironmentSpec, error) {
	spec := EnvironmentSpec{
		Name:         tableString(t, "name"),
		ArgCount:     tableInt(t, "args"),
		OptionalArgs: tableInt(t, "optional"),
		LineClass:    tableString(t, "line_class"),
		Centered:     tableBool(t, "centered"),
		HideMarkup:   tableBool(t, "hide_markup"),
		Frame:        tableBool(t, "frame"),
		Template:     tableString(t, "template"),
	}
	l, err := ParseList(tableString(t, "list"))
	if err != nil {
		return spec, err
	}
	spec.List = l
	return spec, nil
}

func tableString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func tableInt(t *lua.LTable, key string) int {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func tableBool(t *lua.LTable, key string) bool {
	if b, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return false
}
