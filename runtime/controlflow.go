// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package runtime

// ControlFlowKind tags the variant of a ControlFlow result.
type ControlFlowKind uint8

const (
	FlowNormal ControlFlowKind = iota
	FlowReturn
	FlowBreak
	FlowContinue
)

// ControlFlow is the exec-time replacement for the source's breaker
// sentinel Value (see spec §9: "represent as a dedicated ControlFlow
// enum"). Every statement-handler branch in exec returns one; loops
// consume FlowBreak and FlowContinue, switches consume FlowBreak, and
// both propagate anything else (a FlowReturn, or a FlowContinue out of a
// switch) to their caller. Label is never inspected: break/continue
// always target the innermost enclosing construct.
type ControlFlow struct {
	Kind  ControlFlowKind
	Value Value  // payload for FlowNormal/FlowReturn
	Label string // "" unless break/continue named a label
}

// Normal wraps v as a non-exiting result.
func Normal(v Value) ControlFlow { return ControlFlow{Kind: FlowNormal, Value: v} }

// Return signals a `return v` unwinding through enclosing statements.
func Return(v Value) ControlFlow { return ControlFlow{Kind: FlowReturn, Value: v} }

// BreakFlow signals `break` (optionally labeled).
func BreakFlow(label string) ControlFlow { return ControlFlow{Kind: FlowBreak, Label: label} }

// ContinueFlow signals `continue` (optionally labeled).
func ContinueFlow(label string) ControlFlow { return ControlFlow{Kind: FlowContinue, Label: label} }

// IsNormal reports whether cf represents ordinary (non-exiting) flow.
func (cf ControlFlow) IsNormal() bool { return cf.Kind == FlowNormal }

// Throw is the exec-time replacement for the source's longjmp-based
// Ecc.jmpEnv unwinding (spec §9): an explicit error value bubbling up
// through exec's Go error return instead of a long jump. try/catch
// recovers it; an uncaught Throw propagates to Ecc.EvalInput.
type Throw struct {
	Value Value
}

func (t *Throw) Error() string {
	return "uncaught " + t.Value.TypeName() + " thrown"
}

// NewThrow wraps v as a *Throw.
func NewThrow(v Value) *Throw { return &Throw{Value: v} }
