package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/binaryphile/tonesynth/internal/envelope"
	"github.com/binaryphile/tonesynth/internal/mix"
	"github.com/binaryphile/tonesynth/internal/synth"
	"github.com/binaryphile/tonesynth/internal/volume"
	"github.com/binaryphile/tonesynth/internal/wavfile"
)

func (e *Engine) note(L *lua.LState) int {
	L.Push(lua.LNumber(e.frequency(L, 1)))
	return 1
}

// wave binds sine(f, ms, amp) and its siblings. ms defaults to the session
// duration.
func (e *Engine) wave(kind synth.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		freq := e.frequency(L, 1)
		ms := L.OptInt(2, e.gen.Audio().DurationMs)
		amp := float64(L.OptNumber(3, 1))

		s, err := e.gen.Generate(kind, freq, ms, amp)
		if err != nil {
			return e.fail(L, err)
		}
		return e.push(L, s)
	}
}

func (e *Engine) noise(L *lua.LState) int {
	ms := L.OptInt(1, e.gen.Audio().DurationMs)
	amp := float64(L.OptNumber(2, 1))

	s, err := e.gen.Noise(ms, amp)
	if err != nil {
		return e.fail(L, err)
	}
	return e.push(L, s)
}

func (e *Engine) concat(L *lua.LState) int {
	return e.push(L, mix.Concat(e.signals(L, 1)...))
}

func (e *Engine) normalize(L *lua.LState) int {
	s, err := mix.Normalize(e.signals(L, 1)...)
	if err != nil {
		return e.fail(L, err)
	}
	return e.push(L, s)
}

var (
	linear      = mix.Linear
	logarithmic = mix.Log
)

func (e *Engine) softClip(combine func(float64, ...[]float64) ([]float64, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		threshold := float64(L.CheckNumber(1))
		s, err := combine(threshold, e.signals(L, 2)...)
		if err != nil {
			return e.fail(L, err)
		}
		return e.push(L, s)
	}
}

func (e *Engine) adsr(L *lua.LState) int {
	env := envelope.ADSR{
		AttackMs:      float64(L.CheckNumber(1)),
		DecayEndMs:    float64(L.CheckNumber(2)),
		DecayEndLevel: float64(L.CheckNumber(3)),
	}
	curve, err := env.Curve(e.gen.Audio())
	if err != nil {
		return e.fail(L, err)
	}
	return e.push(L, curve)
}

func (e *Engine) apply(L *lua.LState) int {
	s, err := envelope.Apply(e.checkSignal(L, 1), e.checkSignal(L, 2))
	if err != nil {
		return e.fail(L, err)
	}
	return e.push(L, s)
}

func (e *Engine) scale(L *lua.LState) int {
	return e.push(L, volume.Scale(e.checkSignal(L, 1), float64(L.CheckNumber(2))))
}

func (e *Engine) level(L *lua.LState) int {
	L.Push(lua.LNumber(volume.Average(e.checkSignal(L, 1))))
	return 1
}

func (e *Engine) dbfs(L *lua.LState) int {
	L.Push(lua.LNumber(volume.ToDBFS(float64(L.CheckNumber(1)))))
	return 1
}

func (e *Engine) length(L *lua.LState) int {
	L.Push(lua.LNumber(len(e.checkSignal(L, 1))))
	return 1
}

// sample(s, i) reads one value, 1-based like Lua tables.
func (e *Engine) sample(L *lua.LState) int {
	s := e.checkSignal(L, 1)
	i := L.CheckInt(2)
	if i < 1 || i > len(s) {
		L.ArgError(2, "index out of range")
	}
	L.Push(lua.LNumber(s[i-1]))
	return 1
}

// save(path, s) writes mono; save(path, left, right) writes stereo.
func (e *Engine) save(L *lua.LState) int {
	path := L.CheckString(1)
	audio := e.gen.Audio()

	var err error
	if L.GetTop() >= 3 {
		err = wavfile.SaveStereo(path, e.checkSignal(L, 2), e.checkSignal(L, 3), audio)
	} else {
		err = wavfile.SaveMono(path, e.checkSignal(L, 2), audio)
	}
	if err != nil {
		return e.fail(L, err)
	}
	e.saved = append(e.saved, path)
	return 0
}

func (e *Engine) play(L *lua.LState) int {
	if err := e.player.PlayMono(e.ctx, e.checkSignal(L, 1), e.gen.Audio()); err != nil {
		return e.fail(L, err)
	}
	return 0
}
