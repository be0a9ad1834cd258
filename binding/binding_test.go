package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopePrefersBindings(t *testing.T) {
	s := NewScope(map[string]any{
		"title": "from data",
		"user":  map[string]any{"name": "Ada", "tags": []any{"x", "y"}},
	})
	s.Bind("title", "01HX")

	assert.Equal(t, "01HX", s.Interpolate("${title}"))
	assert.Equal(t, "Hi Ada (y)", s.Interpolate("Hi ${user.name} (${ user.tags[1] })"))
	assert.Equal(t, "${nope}", s.Interpolate("${nope}"))
	assert.Equal(t, map[string]string{"title": "01HX"}, s.Names())
}

func TestResolveReportsMissing(t *testing.T) {
	s := NewScope(nil)
	s.Bind("a", "1")
	out, err := s.Resolve("${a}-${b}-${c.d}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b, c.d")
	assert.Equal(t, "1-${b}-${c.d}", out)

	out, err = s.Resolve("${a}")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}

func TestInterpolateWithoutData(t *testing.T) {
	assert.Equal(t, "${x}", Interpolate("${x}", nil))
	assert.Equal(t, "3", Interpolate("${list[2]}", map[string]any{"list": []any{1, 2, 3}}))
	assert.Equal(t, "${list[9]}", Interpolate("${list[9]}", map[string]any{"list": []any{1}}))
}
