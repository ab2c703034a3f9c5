package template

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vk/cppbuildgo/internal/model"
)

// ErrUndefined is reported when no scope defines a requested variable.
var ErrUndefined = errors.New("undefined variable")

// ErrCycle is reported when resolving a variable requires resolving the
// same variable again through other names.
var ErrCycle = errors.New("variable reference cycle")

// GlobFunc expands a glob pattern appearing inside a $${...} group. The
// returned values must already be escaped template text.
type GlobFunc func(pattern string) ([]string, error)

// Resolver resolves variable names against a scope stack. Results are
// memoised per resolver instance, so one resolver corresponds to one
// call site (a single command expansion); forked tasks each build their
// own.
//
// A resolver is not safe for concurrent use.
type Resolver struct {
	scopes model.ScopeStack
	glob   GlobFunc
	cache  map[string]*cacheEntry
}

type cacheEntry struct {
	resolving bool
	value     model.Value
}

// NewResolver builds a resolver over scopes, outermost first. glob may be
// nil, in which case glob patterns inside $${...} groups are errors.
func NewResolver(scopes model.ScopeStack, glob GlobFunc) *Resolver {
	return &Resolver{
		scopes: scopes,
		glob:   glob,
		cache:  map[string]*cacheEntry{},
	}
}

// Resolve returns the value of name.
//
// Names beginning with `~` resolve to the user's home directory joined
// with the remainder, and names beginning with `env:` resolve to the
// process environment. Everything else walks the scope stack from the
// outermost layer inwards: each layer's entry is expanded as a
// sub-template in which a reference to name itself yields the value
// accumulated in outer layers, letting an inner scope extend an outer
// value. The memo cache doubles as cycle detection: a request for a name
// whose resolution is still in progress fails with ErrCycle.
func (r *Resolver) Resolve(name string) (model.Value, error) {
	if strings.HasPrefix(name, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return model.Value{}, fmt.Errorf("resolving %q: %w", name, err)
		}
		return model.String(Escape(strings.ReplaceAll(home+name[1:], "\\", "/"))), nil
	}
	if env, ok := strings.CutPrefix(name, "env:"); ok {
		v, ok := os.LookupEnv(env)
		if !ok {
			return model.Value{}, fmt.Errorf("environment variable %q is not set", env)
		}
		return model.String(Escape(v)), nil
	}

	if entry, ok := r.cache[name]; ok {
		if entry.resolving {
			return model.Value{}, fmt.Errorf("%w involving %q", ErrCycle, name)
		}
		return entry.value, nil
	}
	entry := &cacheEntry{resolving: true}
	r.cache[name] = entry

	value, err := r.resolveFromScopes(name)
	if err != nil {
		delete(r.cache, name)
		return model.Value{}, err
	}
	entry.resolving = false
	entry.value = value
	return value, nil
}

func (r *Resolver) resolveFromScopes(name string) (model.Value, error) {
	var acc model.Value
	found := false
	for _, scope := range r.scopes {
		raw, ok := scope[name]
		if !ok {
			continue
		}
		lookup := func(n string) (model.Value, error) {
			if n == name {
				if !found {
					return model.Value{}, fmt.Errorf("%q refers to itself before any outer scope defines it", name)
				}
				return acc, nil
			}
			return r.Resolve(n)
		}
		ex := &expander{lookup: lookup, glob: r.glob}

		multi := raw.IsList()
		var items []string
		for _, item := range raw.Items() {
			v, err := ex.expand(item, true)
			if err != nil {
				return model.Value{}, fmt.Errorf("expanding %q: %w", name, err)
			}
			if v.IsList() {
				multi = true
			}
			items = append(items, v.Items()...)
		}
		if multi {
			acc = model.List(items...)
		} else {
			single := ""
			if len(items) > 0 {
				single = items[0]
			}
			acc = model.String(single)
		}
		found = true
	}
	if !found {
		return model.Value{}, fmt.Errorf("%w: %q", ErrUndefined, name)
	}
	return acc, nil
}

// Expand evaluates a top-level template: every group and variable is
// rewritten, multi-valued results are space-joined in place, and the final
// string is unescaped exactly once.
func (r *Resolver) Expand(text string) (string, error) {
	ex := &expander{lookup: r.Resolve, glob: r.glob}
	v, err := ex.expand(text, false)
	if err != nil {
		return "", err
	}
	s, err := v.Single()
	if err != nil {
		return "", err
	}
	return s, nil
}

// ExpandScalar evaluates a template that must produce exactly one value,
// such as an output file path. A multi-valued result is an error rather
// than being joined.
func (r *Resolver) ExpandScalar(text string) (string, error) {
	ex := &expander{lookup: r.Resolve, glob: r.glob}
	v, err := ex.expand(text, true)
	if err != nil {
		return "", err
	}
	if v.IsList() && len(v.Items()) != 1 {
		return "", fmt.Errorf("template %q must resolve to a single value, got %d", text, len(v.Items()))
	}
	s, err := v.Single()
	if err != nil {
		return "", fmt.Errorf("template %q: %w", text, err)
	}
	return Unescape(s), nil
}

// ExpandList evaluates a template in sub-template mode and returns the
// resulting values, each unescaped.
func (r *Resolver) ExpandList(text string) ([]string, error) {
	ex := &expander{lookup: r.Resolve, glob: r.glob}
	v, err := ex.expand(text, true)
	if err != nil {
		return nil, err
	}
	items := v.Items()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Unescape(item)
	}
	return out, nil
}
