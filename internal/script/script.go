// Package script runs Lua programs against the synthesis pipeline.
//
// Signals are userdata values of type "signal". The globals registered by
// New are:
//
//	note(name)                         frequency of a note name
//	sine/saw/triangle/rectangle(f, ms, amp)
//	noise(ms, amp)
//	concat(s...), normalize(s...), linear(t, s...), log(t, s...)
//	adsr(attackMs, decayEndMs, level)  envelope curve as a signal
//	apply(s, curve)
//	scale(s, gain), level(s), dbfs(gain)
//	length(s), sample(s, i)
//	save(path, s [, right])
//	play(s)                            only when a player is attached
//
// Frequencies may be given as numbers or note names. Amplitudes default to 1.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/playback"
	"github.com/binaryphile/tonesynth/internal/synth"
)

const (
	signalType  = "signal"
	failureType = "failure"
)

var ErrScript = errors.New("script failed")

// Engine is a Lua state bound to one generator. It is not safe for
// concurrent use.
type Engine struct {
	L      *lua.LState
	gen    *synth.Generator
	player *playback.Player
	out    io.Writer
	ctx    context.Context

	saved []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlayer enables play().
func WithPlayer(p *playback.Player) Option {
	return func(e *Engine) { e.player = p }
}

// WithOutput redirects print(). The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// New creates an Engine with the standard Lua libraries and the synthesis
// globals.
func New(gen *synth.Generator, opts ...Option) *Engine {
	e := &Engine{
		L:   lua.NewState(),
		gen: gen,
		out: os.Stdout,
		ctx: context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.register()
	return e
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.L.Close()
}

// Saved lists the files written by save(), in order.
func (e *Engine) Saved() []string {
	return e.saved
}

// RunString executes Lua source. A returned signal, if any, is the result.
func (e *Engine) RunString(ctx context.Context, source string) ([]float64, error) {
	return e.run(ctx, func() error { return e.L.DoString(source) })
}

// RunFile executes a Lua file.
func (e *Engine) RunFile(ctx context.Context, path string) ([]float64, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperr.Errorf(apperr.IO, "script", "read script: %w", err)
	}
	return e.run(ctx, func() error { return e.L.DoFile(path) })
}

func (e *Engine) run(ctx context.Context, do func() error) ([]float64, error) {
	e.ctx = ctx
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	top := e.L.GetTop()
	if err := do(); err != nil {
		if failure := failureOf(err); failure != nil {
			return nil, failure
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.Errorf(apperr.Validation, "script", "%w: %v", ErrScript, err)
	}

	var result []float64
	if e.L.GetTop() > top {
		if s, ok := toSignal(e.L.Get(-1)); ok {
			result = s
		}
		e.L.SetTop(top)
	}
	return result, nil
}

// fail raises err as a Lua error value of type "failure", so that when the
// script does not catch it the original error comes back out of run.
func (e *Engine) fail(L *lua.LState, err error) int {
	ud := L.NewUserData()
	ud.Value = err
	L.SetMetatable(ud, L.GetTypeMetatable(failureType))
	L.Error(ud, 0)
	return 0
}

// failureOf returns the Go error carried by an uncaught failure value.
func failureOf(err error) error {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return nil
	}
	ud, ok := apiErr.Object.(*lua.LUserData)
	if !ok {
		return nil
	}
	failure, _ := ud.Value.(error)
	return failure
}

func (e *Engine) register() {
	mt := e.L.NewTypeMetatable(signalType)
	e.L.SetField(mt, "__len", e.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(len(e.checkSignal(L, 1))))
		return 1
	}))
	e.L.SetField(mt, "__tostring", e.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(fmt.Sprintf("signal(%d)", len(e.checkSignal(L, 1)))))
		return 1
	}))

	ft := e.L.NewTypeMetatable(failureType)
	e.L.SetField(ft, "__tostring", e.L.NewFunction(func(L *lua.LState) int {
		msg := failureType
		if ud, ok := L.Get(1).(*lua.LUserData); ok {
			if err, ok := ud.Value.(error); ok {
				msg = err.Error()
			}
		}
		L.Push(lua.LString(msg))
		return 1
	}))

	funcs := map[string]lua.LGFunction{
		"note":      e.note,
		"sine":      e.wave(synth.Sine),
		"saw":       e.wave(synth.Sawtooth),
		"triangle":  e.wave(synth.Triangle),
		"rectangle": e.wave(synth.Rectangle),
		"noise":     e.noise,
		"concat":    e.concat,
		"normalize": e.normalize,
		"linear":    e.softClip(linear),
		"log":       e.softClip(logarithmic),
		"adsr":      e.adsr,
		"apply":     e.apply,
		"scale":     e.scale,
		"level":     e.level,
		"dbfs":      e.dbfs,
		"length":    e.length,
		"sample":    e.sample,
		"save":      e.save,
		"print":     e.print,
	}
	if e.player != nil {
		funcs["play"] = e.play
	}
	for name, fn := range funcs {
		e.L.SetGlobal(name, e.L.NewFunction(fn))
	}
}

func (e *Engine) push(L *lua.LState, s []float64) int {
	ud := L.NewUserData()
	ud.Value = s
	L.SetMetatable(ud, L.GetTypeMetatable(signalType))
	L.Push(ud)
	return 1
}

func toSignal(v lua.LValue) ([]float64, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	s, ok := ud.Value.([]float64)
	return s, ok
}

func (e *Engine) checkSignal(L *lua.LState, n int) []float64 {
	s, ok := toSignal(L.Get(n))
	if !ok {
		L.ArgError(n, "signal expected")
	}
	return s
}

// signals collects every argument from position n on.
func (e *Engine) signals(L *lua.LState, n int) [][]float64 {
	var out [][]float64
	for i := n; i <= L.GetTop(); i++ {
		out = append(out, e.checkSignal(L, i))
	}
	return out
}

// frequency accepts a number or a note name.
func (e *Engine) frequency(L *lua.LState, n int) float64 {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		f, ok := synth.Frequency(strings.TrimSpace(string(v)))
		if !ok {
			L.ArgError(n, fmt.Sprintf("unknown note %q", string(v)))
		}
		return f
	}
	L.ArgError(n, "frequency or note name expected")
	return 0
}

func (e *Engine) print(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	fmt.Fprintln(e.out, strings.Join(parts, "\t"))
	return 0
}
