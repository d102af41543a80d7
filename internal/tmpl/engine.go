// Package tmpl renders note templates: variable substitution with two
// interchangeable delimiter syntaxes and a chain of pluggable text filters.
//
//	{{ title|lower|replace(" ", "-") }}
//	%title%
//
// Unknown placeholders are left in the output untouched; unknown filters
// pass the value through.
package tmpl

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Filter transforms a rendered value. Arguments are the parsed, unquoted
// arguments from the template.
type Filter func(value string, args ...string) string

// Context maps placeholder names to scalar values.
type Context map[string]any

// Engine renders templates against a Context.
type Engine struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

// New returns an Engine with the built-in filters registered.
func New() *Engine {
	e := &Engine{filters: make(map[string]Filter, len(builtinFilters))}
	for name, f := range builtinFilters {
		e.filters[name] = f
	}
	return e
}

// RegisterFilter adds or replaces a filter.
func (e *Engine) RegisterFilter(name string, f Filter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters[name] = f
}

func (e *Engine) filter(name string) (Filter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.filters[name]
	return f, ok
}

// Render substitutes every known placeholder in template. Substituted values
// are never rescanned, so rendering is a single pass.
func (e *Engine) Render(template string, ctx Context) string {
	tokens := tokenize(template)
	var b strings.Builder
	b.Grow(len(template))
	for _, tok := range tokens {
		if tok.expr == nil {
			b.WriteString(tok.raw)
			continue
		}
		v, ok := ctx[tok.expr.name]
		if !ok {
			b.WriteString(tok.raw)
			continue
		}
		b.WriteString(e.apply(toString(v), tok.expr.filters))
	}
	return b.String()
}

func (e *Engine) apply(value string, calls []filterCall) string {
	for _, c := range calls {
		f, ok := e.filter(c.name)
		if !ok {
			continue
		}
		value = f(value, c.args...)
	}
	return value
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
