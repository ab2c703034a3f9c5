package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cppbuildgo/internal/model"
)

func expandWith(t *testing.T, scope model.Scope, text string) (string, error) {
	t.Helper()
	return NewResolver(model.ScopeStack{scope}, nil).Expand(text)
}

func TestExpandSingleAndMultiVariables(t *testing.T) {
	out, err := expandWith(t, model.Scope{
		"t1": model.String("a"),
		"t2": model.List("bb", "ccc", "dddd"),
	}, "${t1} $${t2}")
	require.NoError(t, err)
	assert.Equal(t, "a bb ccc dddd", out)
}

func TestExpandPathGroupQuotesValues(t *testing.T) {
	out, err := expandWith(t, model.Scope{
		"t1": model.List("b b", "c c c", "dddd"),
	}, "[$${t1}]")
	require.NoError(t, err)
	assert.Equal(t, `"b b" "c c c" dddd`, out)
}

func TestExpandGroupFansOutOverPathGroup(t *testing.T) {
	out, err := expandWith(t, model.Scope{
		"t1": model.List("b b", "c c c", "dddd"),
	}, "(f:[$${t1}])")
	require.NoError(t, err)
	assert.Equal(t, `f:"b b" f:"c c c" f:dddd`, out)
}

func TestExpandNestedGroupsAndLists(t *testing.T) {
	out, err := expandWith(t, model.Scope{
		"t0": model.List("a", "(-$${t1})", "(+$${t2})", "${t3}", "$${g, h}"),
		"t1": model.List("b", "c"),
		"t2": model.List("d", "e"),
		"t3": model.String("f"),
	}, "($${t0})")
	require.NoError(t, err)
	assert.Equal(t, "a -b -c +d +e f g h", out)
}

func TestExpandDefinesFanOut(t *testing.T) {
	out, err := expandWith(t, model.Scope{
		"defines": model.List("DEBUG", "UNICODE"),
	}, "(-D$${defines})")
	require.NoError(t, err)
	assert.Equal(t, "-DDEBUG -DUNICODE", out)
}

func TestExpandSubTemplateArity(t *testing.T) {
	scope := model.Scope{
		"xs": model.List("1", "2"),
		"ys": model.List("3", "4"),
	}
	_, err := expandWith(t, scope, "($${xs} $${ys})")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one multi-valued variable")

	scope["ys"] = model.String("3")
	out, err := expandWith(t, scope, "($${xs} $${ys})")
	require.NoError(t, err)
	assert.Equal(t, "1 3 2 3", out)
}

func TestExpandTopLevelMultisAreIndependent(t *testing.T) {
	out, err := expandWith(t, model.Scope{
		"xs": model.List("1", "2"),
		"ys": model.List("3", "4"),
	}, "$${xs} $${ys}")
	require.NoError(t, err)
	assert.Equal(t, "1 2 3 4", out)
}

func TestExpandDedupAtJoinPoint(t *testing.T) {
	out, err := expandWith(t, model.Scope{
		"xs": model.List("a", "b", "a"),
	}, "(-$${xs})")
	require.NoError(t, err)
	assert.Equal(t, "-a -b", out)
}

func TestExpandLiteralEscapes(t *testing.T) {
	out, err := expandWith(t, model.Scope{}, `literal \(parens\) and \$\{dollar\}`)
	require.NoError(t, err)
	assert.Equal(t, "literal (parens) and ${dollar}", out)
}

func TestExpandSingleVarJoinsAtTopLevel(t *testing.T) {
	out, err := expandWith(t, model.Scope{
		"xs": model.List("a", "b"),
	}, "${xs}")
	require.NoError(t, err)
	assert.Equal(t, "a b", out)
}

func TestExpandScalarRejectsMultiValues(t *testing.T) {
	r := NewResolver(model.ScopeStack{{
		"xs": model.List("a", "b"),
		"x":  model.String("a"),
	}}, nil)

	_, err := r.ExpandScalar("out/$${xs}.o")
	require.Error(t, err)

	out, err := r.ExpandScalar("out/${x}.o")
	require.NoError(t, err)
	assert.Equal(t, "out/a.o", out)
}

func TestExpandGlobInMultiVar(t *testing.T) {
	glob := func(pattern string) ([]string, error) {
		assert.Equal(t, "src/*.cpp", pattern)
		return []string{"src/a.cpp", "src/b.cpp"}, nil
	}
	r := NewResolver(nil, glob)
	out, err := r.Expand("$${src/*.cpp}")
	require.NoError(t, err)
	assert.Equal(t, "src/a.cpp src/b.cpp", out)
}

func TestExpandListUnescapesValues(t *testing.T) {
	r := NewResolver(model.ScopeStack{{
		"xs": model.List(`a\,b`, "c"),
	}}, nil)
	items, err := r.ExpandList("$${xs}")
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b", "c"}, items)
}

func TestExpandUnbalancedTemplate(t *testing.T) {
	_, err := expandWith(t, model.Scope{}, "(unclosed")
	assert.ErrorIs(t, err, ErrUnbalanced)
}
