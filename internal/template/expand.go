package template

import (
	"fmt"
	"strings"

	"github.com/vk/cppbuildgo/internal/model"
)

// expander evaluates template text against a variable lookup. The lookup
// is a function rather than a *Resolver so the resolver can intercept
// self-references while expanding a scope entry.
type expander struct {
	lookup func(name string) (model.Value, error)
	glob   GlobFunc
}

// expand runs the four rewrite passes over text. In top-level mode (sub ==
// false) the result is always a single string with escapes consumed; in
// sub-template mode the result may be a multi-valued sequence, still in
// escaped form, for the caller to fan out or join.
func (e *expander) expand(text string, sub bool) (model.Value, error) {
	t, err := e.passGroups(text)
	if err != nil {
		return model.Value{}, err
	}
	t, err = e.passPathGroups(t, sub)
	if err != nil {
		return model.Value{}, err
	}
	t, err = e.passSingleVars(t, sub)
	if err != nil {
		return model.Value{}, err
	}
	if sub {
		return e.passMultiVarsSub(t)
	}
	t, err = e.passMultiVarsTop(t)
	if err != nil {
		return model.Value{}, err
	}
	return model.String(Unescape(t)), nil
}

// passGroups rewrites every outer (...) group. The group body is a
// sub-template; its values are always space-joined in place.
func (e *expander) passGroups(text string) (string, error) {
	return e.rewrite(text, "(", ")", func(m Match) (string, error) {
		v, err := e.expand(m.Inner, true)
		if err != nil {
			return "", err
		}
		return v.Join(), nil
	})
}

// passPathGroups rewrites every outer [...] group: the body is expanded as
// a sub-template and each value is formatted as a shell path. A
// multi-valued result inside another sub-template is re-encoded as a
// $${...} list literal so the enclosing group can still fan out over it.
func (e *expander) passPathGroups(text string, sub bool) (string, error) {
	return e.rewrite(text, "[", "]", func(m Match) (string, error) {
		v, err := e.expand(m.Inner, true)
		if err != nil {
			return "", err
		}
		paths := make([]string, len(v.Items()))
		for i, item := range v.Items() {
			paths[i] = FormatPath(item)
		}
		if sub && v.IsList() {
			return "$${" + VariableListJoin(paths) + "}", nil
		}
		return strings.Join(paths, " "), nil
	})
}

// passSingleVars rewrites every ${name} reference. A multi-valued
// resolution is re-encoded inside a sub-template and space-joined at top
// level.
func (e *expander) passSingleVars(text string, sub bool) (string, error) {
	return e.rewriteVars(text, "${", func(m Match) (string, error) {
		v, err := e.lookup(m.Inner)
		if err != nil {
			return "", err
		}
		if v.IsList() {
			if sub {
				return "$${" + VariableListJoin(v.Items()) + "}", nil
			}
			return v.Join(), nil
		}
		s, err := v.Single()
		if err != nil {
			return "", err
		}
		return s, nil
	})
}

// passMultiVarsTop rewrites $${...} groups at top level: each occurrence
// is independently expanded to its sequence and space-joined in place.
func (e *expander) passMultiVarsTop(text string) (string, error) {
	return e.rewriteVars(text, "$${", func(m Match) (string, error) {
		items, err := e.multiValues(m.Inner)
		if err != nil {
			return "", err
		}
		return strings.Join(items, " "), nil
	})
}

// passMultiVarsSub handles $${...} groups inside a sub-template. The
// enclosing text is cloned once per value of the (at most one) multi-valued
// group, every clone is re-expanded, and the results are collected and
// deduplicated. Two distinct multi-valued groups in one sub-template are
// rejected to avoid Cartesian-product ambiguity.
func (e *expander) passMultiVarsSub(text string) (model.Value, error) {
	matches, err := MatchBrackets(text, []string{"$${", "${"}, "}", EscapeChar)
	if err != nil {
		return model.Value{}, err
	}
	matches = filterLeft(matches, "$${")
	if len(matches) == 0 {
		return model.String(text), nil
	}

	values := map[string][]string{}
	fanInner := ""
	for _, m := range matches {
		if _, ok := values[m.Inner]; ok {
			continue
		}
		items, err := e.multiValues(m.Inner)
		if err != nil {
			return model.Value{}, err
		}
		values[m.Inner] = items
		if len(items) != 1 {
			if fanInner != "" && fanInner != m.Inner {
				return model.Value{}, fmt.Errorf("sub-template %q contains more than one multi-valued variable", text)
			}
			fanInner = m.Inner
		}
	}

	fanValues := []string{""}
	if fanInner != "" {
		fanValues = values[fanInner]
	}

	var collected []string
	sawList := fanInner != ""
	for _, fanValue := range fanValues {
		clone := substitute(text, matches, func(m Match) string {
			if m.Inner == fanInner {
				return fanValue
			}
			return values[m.Inner][0]
		})
		v, err := e.expand(clone, true)
		if err != nil {
			return model.Value{}, err
		}
		if v.IsList() {
			sawList = true
		}
		collected = append(collected, v.Items()...)
	}
	collected = uniq(collected)

	if !sawList && len(collected) == 1 {
		return model.String(collected[0]), nil
	}
	return model.List(collected...), nil
}

// multiValues evaluates the inner text of a $${...} group. The lexical
// form decides the meaning: a bare variable name resolves through the
// lookup, a pattern containing glob metacharacters expands against the
// workspace, and anything else must parse as a literal list.
func (e *expander) multiValues(inner string) ([]string, error) {
	name := strings.TrimSpace(inner)
	if model.ValidName(name) || strings.HasPrefix(name, "env:") || strings.HasPrefix(name, "~") {
		v, err := e.lookup(name)
		if err != nil {
			return nil, err
		}
		return v.Items(), nil
	}
	if !strings.ContainsAny(inner, ",'") && strings.ContainsAny(inner, "*?") {
		if e.glob == nil {
			return nil, fmt.Errorf("glob pattern %q is not allowed here", inner)
		}
		return e.glob(Unescape(name))
	}
	items, err := VariableListParse(inner)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// rewrite replaces every outer match of one bracket kind using repl.
func (e *expander) rewrite(text, left, right string, repl func(Match) (string, error)) (string, error) {
	matches, err := MatchBrackets(text, []string{left}, right, EscapeChar)
	if err != nil {
		return "", err
	}
	return substituteErr(text, matches, repl)
}

// rewriteVars replaces the ${...} or $${...} matches selected by left,
// leaving the other variable family untouched for a later pass.
func (e *expander) rewriteVars(text, left string, repl func(Match) (string, error)) (string, error) {
	matches, err := MatchBrackets(text, []string{"$${", "${"}, "}", EscapeChar)
	if err != nil {
		return "", err
	}
	return substituteErr(text, filterLeft(matches, left), repl)
}

func filterLeft(matches []Match, left string) []Match {
	var out []Match
	for _, m := range matches {
		if m.Left == left {
			out = append(out, m)
		}
	}
	return out
}

func substitute(text string, matches []Match, repl func(Match) string) string {
	out, _ := substituteErr(text, matches, func(m Match) (string, error) {
		return repl(m), nil
	})
	return out
}

func substituteErr(text string, matches []Match, repl func(Match) (string, error)) (string, error) {
	var b strings.Builder
	last := 0
	for _, m := range matches {
		r, err := repl(m)
		if err != nil {
			return "", err
		}
		b.WriteString(text[last:m.Start])
		b.WriteString(r)
		last = m.Start + len(m.Outer)
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// uniq removes duplicates while preserving first-occurrence order.
func uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
