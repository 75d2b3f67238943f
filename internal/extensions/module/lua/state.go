// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package lua

import (
	"log/slog"
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

type library struct {
	name string
	open lua.LGFunction
}

// scriptLibraries are the only libraries an extension script gets. There is
// no os, io, debug, package, coroutine or channel.
var scriptLibraries = []library{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// blockedGlobals are base functions that read files or compile code.
var blockedGlobals = []string{"dofile", "loadfile", "loadstring", "load"}

// sandbox opens the Lua state of one extension script.
type sandbox struct {
	libs []library
}

func newSandbox() sandbox {
	return sandbox{libs: scriptLibraries}
}

// open returns a state holding only the sandbox libraries. print is
// routed to the host log, tagged with the script path.
func (s sandbox) open(path string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, lib := range s.libs {
		err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), Protect: true}, lua.LString(lib.name))
		if err != nil {
			L.Close()
			return nil, oops.In("lua").With("path", path).With("library", lib.name).
				Wrapf(err, "open library %s", lib.name)
		}
	}

	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(logPrint(path)))
	return L, nil
}

// logPrint writes print arguments, tab separated, to the info log.
func logPrint(path string) lua.LGFunction {
	return func(L *lua.LState) int {
		args := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			args = append(args, L.ToStringMeta(L.Get(i)).String())
		}
		slog.Info(strings.Join(args, "\t"), "path", path, "source", "print")
		return 0
	}
}
