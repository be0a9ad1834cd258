// Package storetest 是所有 document.Store 实现共用的行为测试。
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/element"
	"github.com/ByLCY/vellum/geom"
)

// Run 对 store 执行完整的增删改查检查。store 必须为空。
func Run(t *testing.T, store document.Store) {
	t.Helper()
	ctx := context.Background()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	doc := document.New("first", geom.Size{Width: 640, Height: 480})
	shape := element.Factory{Canvas: geom.Size{Width: 640, Height: 480}}.Shape(element.FormTriangle)
	shape.ID = "s1"
	doc.Pages[0].Elements = append(doc.Pages[0].Elements, shape)

	require.NoError(t, store.Save(ctx, &doc))
	require.NotEmpty(t, doc.ID)
	require.False(t, doc.CreatedAt.IsZero())
	created := doc.CreatedAt

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	require.Len(t, got.Pages, 1)
	require.Len(t, got.Pages[0].Elements, 1)
	assert.Equal(t, element.FormTriangle, got.Pages[0].Elements[0].Shape.Form)
	assert.False(t, got.Pages[0].Elements[0].IsNew)

	got.Title = "renamed"
	require.NoError(t, store.Save(ctx, &got))
	assert.True(t, got.CreatedAt.Equal(created), "更新不改变创建时间")

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "renamed", list[0].Title)
	assert.Equal(t, 1, list[0].Elements)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, document.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), document.ErrNotFound)

	require.NoError(t, store.Delete(ctx, doc.ID))
	_, err = store.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, document.ErrNotFound)
}
