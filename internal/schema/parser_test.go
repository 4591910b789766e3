package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ermapa/internal/schema"
)

const structuredPayload = `[
  {"identifier": "users", "name": "Users", "tableFields": [
    {"identifier": "email", "name": "Email", "fieldFormat": "string"}
  ]},
  {"id": "t-orders", "identifier": "orders", "name": "Orders", "tableFields": [
    {"id": "f-cust", "identifier": "customer", "name": "Customer",
     "fieldFormat": "relation", "relationTableIdentifier": "users"}
  ]}
]`

func TestParseStructured(t *testing.T) {
	entities, err := schema.ParseStructured([]byte(structuredPayload))
	require.NoError(t, err)
	require.Len(t, entities, 2)

	// отсутствующие id дозаполняются детерминированно
	assert.Equal(t, "table-users", entities[0].ID)
	assert.Equal(t, "field-table-users-email", entities[0].Fields[0].ID)
	assert.Equal(t, "table-users", entities[0].Fields[0].TableID)

	// явные id не перетираются
	assert.Equal(t, "t-orders", entities[1].ID)
	assert.Equal(t, "f-cust", entities[1].Fields[0].ID)
	assert.Equal(t, "users", entities[1].Fields[0].RelationTable)
}

func TestParseStructuredInvalid(t *testing.T) {
	_, err := schema.ParseStructured([]byte(`{"not": "an array"}`))
	require.Error(t, err)
	var fe *schema.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestParseStructuredDuplicateIdentifiers(t *testing.T) {
	// два описателя без id с одинаковым identifier не должны склеиться
	// в один синтезированный id
	payload := `[
	  {"identifier": "users", "name": "Users A", "tableFields": [
	    {"identifier": "email", "name": "Email", "fieldFormat": "string"}
	  ]},
	  {"identifier": "users", "name": "Users B", "tableFields": [
	    {"identifier": "email", "name": "Email", "fieldFormat": "string"}
	  ]}
	]`
	entities, err := schema.ParseStructured([]byte(payload))
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, "table-users", entities[0].ID)
	assert.Equal(t, "table-users-2", entities[1].ID)
	assert.NotEqual(t, entities[0].Fields[0].ID, entities[1].Fields[0].ID)
}

func TestParseStructuredSynthesizedIDAvoidsExplicit(t *testing.T) {
	// явный id "table-users" уже занят — синтез обязан его обойти
	payload := `[
	  {"id": "table-users", "identifier": "other", "name": "Other", "tableFields": []},
	  {"identifier": "users", "name": "Users", "tableFields": []}
	]`
	entities, err := schema.ParseStructured([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "table-users-2", entities[1].ID)
}

func TestParseEmbedded(t *testing.T) {
	text := "Вот схема, которую мы обсуждали:\n\n" + structuredPayload +
		"\n\nДай знать, если что-то не так."
	entities, err := schema.ParseEmbedded([]byte(text))
	require.NoError(t, err)
	assert.Len(t, entities, 2)
	assert.Equal(t, "users", entities[0].Identifier)
}

func TestParseEmbeddedSkipsFalseBrackets(t *testing.T) {
	// '[' в обычном тексте и внутри строк не должны сбивать сканер
	text := `see [docs] and note "a [weird] string" before [{"identifier":"x","name":"X","tableFields":[]}] end`
	entities, err := schema.ParseEmbedded([]byte(text))
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "x", entities[0].Identifier)
}

func TestParseEmbeddedNoArray(t *testing.T) {
	_, err := schema.ParseEmbedded([]byte("тут нет никакого массива"))
	require.Error(t, err)
	var fe *schema.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestParseKindDispatch(t *testing.T) {
	_, err := schema.Parse([]byte("prose "+structuredPayload), schema.ImportEmbedded)
	assert.NoError(t, err)
	_, err = schema.Parse([]byte("prose "+structuredPayload), schema.ImportStructured)
	assert.Error(t, err)
}
