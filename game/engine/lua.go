package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/wricardo/nine-nine/game/board"
)

// Global functions an opponent script may define. Each returns a string;
// any missing function or invalid answer falls back to the wrapped policy.
//
//	function choose_five_option(view)          -- "move" or "place"
//	function choose_move(view, options)        -- one of options
//	function choose_placement(view, options)   -- one of options
//
// view has fields dice, turn, me {x, y}, opponent {x, y} and obstacles,
// an array of {x, y}.
const (
	luaFiveOptionFn = "choose_five_option"
	luaMoveFn       = "choose_move"
	luaPlacementFn  = "choose_placement"
)

// LuaTimeout bounds loading a script and every call into it
const LuaTimeout = 250 * time.Millisecond

// ErrScriptTimeout is returned when a script does not finish within LuaTimeout
var ErrScriptTimeout = errors.New("opponent script timed out")

// base library functions that reach the filesystem or compile code
var luaBlockedGlobals = []string{"dofile", "loadfile", "load"}

// LuaPolicy runs opponent decisions through a Lua script
type LuaPolicy struct {
	state    *lua.LState
	fallback Policy
	// set once a call times out; the script is skipped from then on
	stalled bool
}

// NewLuaPolicy loads script into a sandboxed interpreter. The fallback is
// consulted whenever the script has no answer.
func NewLuaPolicy(script string, fallback Policy) (*LuaPolicy, error) {
	L, err := newSandbox()
	if err != nil {
		return nil, err
	}
	if err := runLimited(L, func() error { return L.DoString(script) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("load opponent script: %w", err)
	}
	return &LuaPolicy{state: L, fallback: fallback}, nil
}

// CheckOpponentScript reports whether script loads without error
func CheckOpponentScript(script string) error {
	policy, err := NewLuaPolicy(script, nil)
	if err != nil {
		return err
	}
	policy.Close()
	return nil
}

// Close releases the interpreter
func (p *LuaPolicy) Close() {
	p.state.Close()
}

func (p *LuaPolicy) ChooseFiveOption(view OpponentView) FiveOption {
	answer, ok := p.call(luaFiveOptionFn, p.viewTable(view))
	if ok {
		switch FiveOption(answer) {
		case FiveMove, FivePlace:
			return FiveOption(answer)
		}
	}
	return p.fallback.ChooseFiveOption(view)
}

func (p *LuaPolicy) ChooseMove(view OpponentView, options []board.Direction) board.Direction {
	answer, ok := p.call(luaMoveFn, p.viewTable(view), p.optionsTable(options))
	if ok && board.Contains(options, board.Direction(answer)) {
		return board.Direction(answer)
	}
	return p.fallback.ChooseMove(view, options)
}

func (p *LuaPolicy) ChoosePlacement(view OpponentView, options []board.Direction) board.Direction {
	answer, ok := p.call(luaPlacementFn, p.viewTable(view), p.optionsTable(options))
	if ok && board.Contains(options, board.Direction(answer)) {
		return board.Direction(answer)
	}
	return p.fallback.ChoosePlacement(view, options)
}

func (p *LuaPolicy) call(name string, args ...lua.LValue) (string, bool) {
	if p.stalled {
		return "", false
	}
	fn := p.state.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return "", false
	}

	top := p.state.GetTop()
	err := runLimited(p.state, func() error {
		return p.state.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args...)
	})
	if err != nil {
		p.state.SetTop(top)
		if errors.Is(err, ErrScriptTimeout) {
			p.stalled = true
		}
		logrus.WithError(err).WithField("function", name).Warn("opponent script failed, using fallback")
		return "", false
	}

	ret := p.state.Get(-1)
	p.state.Pop(1)

	answer, ok := ret.(lua.LString)
	if !ok {
		return "", false
	}
	return string(answer), true
}

func (p *LuaPolicy) viewTable(view OpponentView) *lua.LTable {
	t := p.state.NewTable()
	t.RawSetString("dice", lua.LNumber(view.Dice))
	t.RawSetString("turn", lua.LNumber(view.Turn))
	t.RawSetString("me", p.positionTable(view.Position()))
	t.RawSetString("opponent", p.positionTable(view.Opponent()))

	obstacles := p.state.NewTable()
	for _, o := range view.Board.Obstacles {
		obstacles.Append(p.positionTable(o))
	}
	t.RawSetString("obstacles", obstacles)
	return t
}

func (p *LuaPolicy) positionTable(pos board.Position) *lua.LTable {
	t := p.state.NewTable()
	t.RawSetString("x", lua.LNumber(pos.X))
	t.RawSetString("y", lua.LNumber(pos.Y))
	return t
}

func (p *LuaPolicy) optionsTable(options []board.Direction) *lua.LTable {
	t := p.state.NewTable()
	for _, d := range options {
		t.Append(lua.LString(d))
	}
	return t
}

// runLimited runs fn with a LuaTimeout deadline on L
func runLimited(L *lua.LState, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), LuaTimeout)
	defer cancel()

	L.SetContext(ctx)
	defer L.RemoveContext()

	err := fn()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %s", ErrScriptTimeout, LuaTimeout)
	}
	return err
}

// newSandbox opens only the libraries a decision script needs
func newSandbox() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("open lua library %s: %w", lib.name, err)
		}
	}
	for _, name := range luaBlockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L, nil
}
