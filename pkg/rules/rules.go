// Package rules runs an optional Lua hook over IR events before they are
// forwarded, letting deployments drop or rewrite events at the edge.
package rules

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/hausnet/irbridge/pkg/ircode"
)

// Engine defines the rule engine interface.
type Engine interface {
	// Execute runs the hook for one event. It returns the (possibly
	// rewritten) record and whether the event should be forwarded.
	Execute(direction string, rec ircode.Record) (ircode.Record, bool, error)
	// Close closes the engine.
	Close() error
}

// LuaEngine implements a Lua-based rule engine.
type LuaEngine struct {
	mu sync.Mutex
	L  *lua.LState
}

// NewLuaEngine creates a rule engine from a script file.
func NewLuaEngine(scriptPath string) (*LuaEngine, error) {
	L := lua.NewState()
	L.OpenLibs()

	if err := L.DoFile(scriptPath); err != nil {
		L.Close()
		return nil, err
	}

	return &LuaEngine{L: L}, nil
}

// NewLuaEngineFromString creates a rule engine from inline script source.
func NewLuaEngineFromString(script string) (*LuaEngine, error) {
	L := lua.NewState()
	L.OpenLibs()

	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, err
	}

	return &LuaEngine{L: L}, nil
}

// Execute runs the 'on_ircode' function in Lua. The hook receives the event
// direction, protocol label and payload hex. Returning nil drops the event;
// returning a string replaces the payload; any other value passes the event
// through unchanged. A missing hook passes everything through.
func (e *LuaEngine) Execute(direction string, rec ircode.Record) (ircode.Record, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	L := e.L

	fn := L.GetGlobal("on_ircode")
	if fn.Type() != lua.LTFunction {
		return rec, true, nil
	}

	L.Push(fn)
	L.Push(lua.LString(direction))
	L.Push(lua.LString(rec.Protocol))
	L.Push(lua.LString(rec.Payload))

	if err := L.PCall(3, 1, nil); err != nil {
		return rec, false, fmt.Errorf("lua execution error: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	switch ret.Type() {
	case lua.LTNil:
		return rec, false, nil
	case lua.LTString:
		rec.Payload = ret.String()
		return rec, true, nil
	default:
		return rec, true, nil
	}
}

// Close closes the Lua state.
func (e *LuaEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.L.Close()
	return nil
}
