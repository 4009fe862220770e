// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import (
	"math"
	"strconv"
	"strings"

	"github.com/probechain/probescript/ecc"
	"github.com/probechain/probescript/internal/errorx"
	"github.com/probechain/probescript/runtime"
)

// installGlobal wires the free-standing global functions (spec §4.8):
// parseInt, parseFloat, isNaN, isFinite, and eval. eval needs the
// concrete *ecc.Engine (rather than the narrow engineLike interface)
// because it is the one builtin that re-enters the compile/run pipeline
// itself.
func installGlobal(e *ecc.Engine) {
	e.AddNative("parseInt", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		s = strings.TrimSpace(s)
		radix := 10
		if ctx.ArgumentCount() > 1 {
			if r := int(ctx.Argument(1).ToNumber()); r != 0 {
				radix = r
			}
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
		if (radix == 16 || radix == 10) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
			radix = 16
		}
		end := 0
		for end < len(s) && isDigitInRadix(s[end], radix) {
			end++
		}
		if end == 0 {
			return runtime.Binary(math.NaN()), nil
		}
		n, err := strconv.ParseInt(s[:end], radix, 64)
		if err != nil {
			return runtime.Binary(math.NaN()), nil
		}
		if neg {
			n = -n
		}
		return runtime.Binary(float64(n)), nil
	})

	e.AddNative("parseFloat", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		s = strings.TrimSpace(s)
		end := len(s)
		for end > 0 {
			if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
				break
			}
			end--
		}
		if end == 0 {
			return runtime.Binary(math.NaN()), nil
		}
		f, _ := strconv.ParseFloat(s[:end], 64)
		return runtime.Binary(f), nil
	})

	e.AddNative("isNaN", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		n, t := toNumberValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		return runtime.Bool(math.IsNaN(n)), nil
	})

	e.AddNative("isFinite", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		n, t := toNumberValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		return runtime.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	e.AddNative("eval", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if arg.Kind != runtime.KindText && arg.Kind != runtime.KindChars {
			return arg, nil
		}
		input := ecc.CreateInputFromBytes([]byte(arg.DisplayString()), "(eval)")
		result, err := e.EvalInputWithContext(input, ctx)
		if err == nil {
			return result, nil
		}
		// A compile failure or an uncaught throw inside the evaluated text
		// both surface here as a plain Go error (ecc.EvalInputWithContext
		// already printed diagnostics for it); re-throw as a catchable
		// script error matching its reported taxonomy so `try { eval(...) }
		// catch (e) {}` still works for code eval'd this way.
		kind, message := "Error", err.Error()
		if se, ok := err.(*errorx.ScriptError); ok {
			kind, message = se.Kind.String(), se.Message
		}
		return runtime.Value{}, runtime.NewThrow(ctx.NewError(kind, message))
	})
}

func isDigitInRadix(c byte, radix int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < radix
}
