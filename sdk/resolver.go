// Copyright 2026 The Botanu Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sdk

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/botanu/botanu-go/pkg/errors"
)

// Resolver produces an identifier (event ID or customer ID) from the
// input of a use-case invocation. A resolver is either a static value
// or a function of the input; it is resolved once, before the wrapped
// work begins.
type Resolver struct {
	static    string
	hasStatic bool
	fn        func(input map[string]any) (string, error)
}

// Static returns a resolver that always yields value.
func Static(value string) Resolver {
	return Resolver{static: value, hasStatic: true}
}

// FromInput returns a resolver that reads the named key from the
// invocation input and stringifies it. Resolution fails when the key
// is absent or empty.
func FromInput(key string) Resolver {
	return Resolver{fn: func(input map[string]any) (string, error) {
		v, ok := input[key]
		if !ok {
			return "", fmt.Errorf("input key %q not present", key)
		}
		s := stringify(v)
		if s == "" {
			return "", fmt.Errorf("input key %q is empty", key)
		}
		return s, nil
	}}
}

// FromFunc returns a resolver backed by an arbitrary function of the
// invocation input.
func FromFunc(fn func(input map[string]any) (string, error)) Resolver {
	return Resolver{fn: fn}
}

// FromExpr returns a resolver that evaluates an expr-lang expression
// against the invocation input, e.g. FromExpr(`ticket.customer_id`)
// or FromExpr(`"order-" + string(order_id)`). Compilation errors
// surface immediately, before any use case is built around them.
func FromExpr(expression string) (Resolver, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return Resolver{}, &errors.ConfigError{
			Key:    "resolver",
			Reason: fmt.Sprintf("cannot compile expression %q", expression),
			Cause:  err,
		}
	}
	return Resolver{fn: exprResolver(program)}, nil
}

func exprResolver(program *vm.Program) func(map[string]any) (string, error) {
	return func(input map[string]any) (string, error) {
		env := input
		if env == nil {
			env = map[string]any{}
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return "", err
		}
		s := stringify(out)
		if s == "" {
			return "", fmt.Errorf("expression evaluated to empty value")
		}
		return s, nil
	}
}

// isZero reports whether the resolver was never configured.
func (r Resolver) isZero() bool {
	return !r.hasStatic && r.fn == nil
}

// resolve executes the resolver against the invocation input.
func (r Resolver) resolve(input map[string]any) (string, error) {
	if r.hasStatic {
		return r.static, nil
	}
	return r.fn(input)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
