package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ermapa/internal/graph"
	"ermapa/internal/schema"
	"ermapa/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSchemaRoundTrip(t *testing.T) {
	st := openTestStore(t)

	_, found, err := st.LoadSchema()
	require.NoError(t, err)
	assert.False(t, found)

	entities := schema.Normalize([]*schema.Entity{
		{ID: "t-users", Identifier: "users", Name: "Users",
			Fields: []schema.Field{
				{ID: "f-email", Identifier: "email", Name: "Email", Format: schema.FormatString},
			}},
	})
	require.NoError(t, st.SaveSchema(entities))

	loaded, found, err := st.LoadSchema()
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded, 1)
	assert.Equal(t, "users", loaded[0].Identifier)
	require.Len(t, loaded[0].Fields, 2)
	assert.Equal(t, "id", loaded[0].Fields[0].Identifier)
}

func TestSchemaOverwrite(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.SaveSchema([]*schema.Entity{{ID: "a", Identifier: "a"}}))
	require.NoError(t, st.SaveSchema([]*schema.Entity{{ID: "b", Identifier: "b"}}))

	loaded, found, err := st.LoadSchema()
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded, 1)
	assert.Equal(t, "b", loaded[0].ID)
}

func TestLayoutRoundTrip(t *testing.T) {
	st := openTestStore(t)

	_, found, err := st.LoadLayout()
	require.NoError(t, err)
	assert.False(t, found)

	layout := graph.Layout{"t-users": {X: 120, Y: 340}}
	require.NoError(t, st.SaveLayout(layout))

	loaded, found, err := st.LoadLayout()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, graph.Point{X: 120, Y: 340}, loaded["t-users"])
}
