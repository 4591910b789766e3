package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ermapa/internal/graph"
	"ermapa/internal/schema"
)

func testEntities() []*schema.Entity {
	users := &schema.Entity{ID: "t-users", Identifier: "users", Name: "Users"}
	orders := &schema.Entity{ID: "t-orders", Identifier: "orders", Name: "Orders",
		Fields: []schema.Field{
			{ID: "f-cust", Identifier: "customer", Name: "Customer",
				Format: schema.FormatRelation, RelationTable: "users"},
		}}
	return schema.Normalize([]*schema.Entity{users, orders})
}

func TestDeriveEdges(t *testing.T) {
	entities := testEntities()
	nodes, edges := graph.Derive(entities, graph.Layout{})

	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)

	e := edges[0]
	assert.Equal(t, "edge-t-orders-customer-to-t-users-id", e.ID)
	assert.Equal(t, "t-orders", e.Source)
	assert.Equal(t, "t-users", e.Target)
	assert.Equal(t, "f-cust", e.SourceField)
	assert.Equal(t, "t-users-id", e.TargetField) // всегда в первичный ключ
	assert.Equal(t, "one-to-one", e.Cardinality)
}

func TestDeriveCardinality(t *testing.T) {
	entities := testEntities()
	entities[1].Fields[1].Multiple = true
	_, edges := graph.Derive(entities, graph.Layout{})
	require.Len(t, edges, 1)
	assert.Equal(t, "one-to-many", edges[0].Cardinality)
}

func TestDeriveDanglingRelation(t *testing.T) {
	entities := testEntities()
	entities[1].Fields[1].RelationTable = "ghosts"
	nodes, edges := graph.Derive(entities, graph.Layout{})
	// висячая ссылка не даёт ребра и не ломает вывод
	assert.Len(t, nodes, 2)
	assert.Empty(t, edges)
}

func TestDerivePositionPrecedence(t *testing.T) {
	entities := testEntities()
	entities[0].PX = 111
	entities[0].PY = 222

	// раскладка важнее px/py
	layout := graph.Layout{"t-users": {X: 10, Y: 20}}
	nodes, _ := graph.Derive(entities, layout)
	assert.Equal(t, graph.Point{X: 10, Y: 20}, nodes[0].Position)

	// без раскладки берутся px/py
	nodes, _ = graph.Derive(entities, graph.Layout{})
	assert.Equal(t, graph.Point{X: 111, Y: 222}, nodes[0].Position)

	// без того и другого — сетка по индексу
	assert.Equal(t, graph.GridDefault(1), nodes[1].Position)
}

func TestDeriveNodeFields(t *testing.T) {
	entities := testEntities()
	nodes, _ := graph.Derive(entities, graph.Layout{})

	require.Len(t, nodes[1].Fields, 2)
	pk := nodes[1].Fields[0]
	assert.True(t, pk.IsPrimaryKey)
	assert.False(t, pk.IsRelation)

	rel := nodes[1].Fields[1]
	assert.False(t, rel.IsPrimaryKey)
	assert.True(t, rel.IsRelation)
	assert.Equal(t, "users", rel.RelationTable)
}

func TestGridDefault(t *testing.T) {
	assert.Equal(t, graph.Point{X: 50, Y: 50}, graph.GridDefault(0))
	assert.Equal(t, graph.Point{X: 450, Y: 50}, graph.GridDefault(1))
	assert.Equal(t, graph.Point{X: 50, Y: 500}, graph.GridDefault(3))
}

func TestPlacementDistinct(t *testing.T) {
	seen := map[graph.Point]bool{}
	for n := 0; n < 24; n++ {
		p := graph.Placement(n)
		assert.False(t, seen[p], "placement %d collides", n)
		seen[p] = true
	}
}

func TestLayoutRetain(t *testing.T) {
	l := graph.Layout{"a": {X: 1}, "b": {X: 2}}
	kept := l.Retain(map[string]bool{"a": true})
	assert.Len(t, kept, 1)
	assert.Contains(t, kept, "a")
	// исходная раскладка не мутируется
	assert.Len(t, l, 2)
}
