package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ermapa/internal/schema"
)

func TestNormalizeSynthesizesPrimaryKey(t *testing.T) {
	e := &schema.Entity{
		ID:         "table-users",
		Identifier: "users",
		Fields: []schema.Field{
			{ID: "f1", Identifier: "email", Format: schema.FormatString, Position: 0},
			{ID: "f2", Identifier: "age", Format: schema.FormatInt, Position: 1},
		},
	}
	schema.Normalize([]*schema.Entity{e})

	require.Len(t, e.Fields, 3)
	pk := e.Fields[0]
	assert.Equal(t, "table-users-id", pk.ID)
	assert.Equal(t, "id", pk.Identifier)
	assert.Equal(t, schema.FormatInt, pk.Format)
	assert.True(t, pk.IsRequired)
	assert.True(t, pk.IsUnique)
	assert.True(t, pk.IsFilter)
	assert.False(t, pk.IsEditable)
	assert.True(t, pk.IsVisible)
	assert.Equal(t, 0, pk.Position)
	assert.Equal(t, "primary key of the table", pk.Description)

	// существующие поля сдвинуты на одну позицию
	assert.Equal(t, 1, e.Fields[1].Position)
	assert.Equal(t, "email", e.Fields[1].Identifier)
	assert.Equal(t, 2, e.Fields[2].Position)
}

func TestNormalizeIdempotent(t *testing.T) {
	e := &schema.Entity{ID: "table-orders", Identifier: "orders",
		Fields: []schema.Field{{ID: "f1", Identifier: "total", Format: schema.FormatFloat}}}

	schema.Normalize([]*schema.Entity{e})
	require.Len(t, e.Fields, 2)
	first := e.Fields[0]

	schema.Normalize([]*schema.Entity{e})
	require.Len(t, e.Fields, 2)
	assert.Equal(t, first, e.Fields[0])
}

func TestNormalizeKeepsExistingPrimaryKey(t *testing.T) {
	e := &schema.Entity{ID: "t1", Identifier: "users",
		Fields: []schema.Field{
			{ID: "custom-pk", Identifier: "id", Format: schema.FormatString, Position: 0},
		}}
	schema.Normalize([]*schema.Entity{e})

	require.Len(t, e.Fields, 1)
	// уже объявленный "id" уважаем, даже с нестандартным форматом
	assert.Equal(t, "custom-pk", e.Fields[0].ID)
	assert.Equal(t, schema.FormatString, e.Fields[0].Format)
}

func TestOperatorsForFormat(t *testing.T) {
	assert.Nil(t, schema.OperatorsFor(schema.FormatRelation))
	assert.Contains(t, schema.OperatorsFor(schema.FormatInt), "between")
	assert.Contains(t, schema.OperatorsFor(schema.FormatString), "contains")
	assert.NotContains(t, schema.OperatorsFor(schema.FormatBool), "gt")
	assert.True(t, schema.OperatorAllowed(schema.FormatDate, "lte"))
	assert.False(t, schema.OperatorAllowed(schema.FormatBool, "contains"))
}

func TestTypeOptionsMismatch(t *testing.T) {
	opts := &schema.TypeOptions{Number: &schema.NumberOptions{}}
	assert.Equal(t, "", opts.MismatchFor(schema.FormatInt))
	assert.Equal(t, "number", opts.MismatchFor(schema.FormatString))

	var none *schema.TypeOptions
	assert.Equal(t, "", none.MismatchFor(schema.FormatList))
}
