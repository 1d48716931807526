package tplengine_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/formweave/extraction-planner/internal/tplengine"
)

func TestRender(t *testing.T) {
	files := fstest.MapFS{
		"greeting.tpl": {Data: []byte("请从下面的描述中提取字段：{{ user_input }}")},
	}
	engine := tplengine.New(files, ".tpl")

	rendered, err := engine.Render("greeting", map[string]any{"user_input": "三号车间发现隐患"})
	require.NoError(t, err)
	require.Equal(t, "请从下面的描述中提取字段：三号车间发现隐患", rendered)
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine := tplengine.New(fstest.MapFS{}, ".tpl")

	_, err := engine.Render("missing", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.tpl")
}

func TestRenderCachesTemplates(t *testing.T) {
	files := fstest.MapFS{
		"greeting.tpl": {Data: []byte("{{ user_input }}")},
	}
	engine := tplengine.New(files, ".tpl")

	first, err := engine.Render("greeting", map[string]any{"user_input": "第一次"})
	require.NoError(t, err)
	second, err := engine.Render("greeting", map[string]any{"user_input": "第二次"})
	require.NoError(t, err)

	require.Equal(t, "第一次", first)
	require.Equal(t, "第二次", second)
}
