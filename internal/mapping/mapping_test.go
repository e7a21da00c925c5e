package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMapNameHints(t *testing.T) {
	m := New()
	err := m.AutoMap(map[string]any{
		"title":  "Some title",
		"status": "active",
	})
	require.NoError(t, err)

	def, ok := m.TypeOf("title")
	require.True(t, ok)
	assert.Equal(t, FieldText, def.Type)

	def, ok = m.TypeOf("status")
	require.True(t, ok)
	assert.Equal(t, FieldKeyword, def.Type)
}

func TestAutoMapValueInference(t *testing.T) {
	m := New()
	err := m.AutoMap(map[string]any{
		"active":   true,
		"score":    float64(42),
		"contact":  "user@example.com",
		"homepage": "https://example.com/path",
	})
	require.NoError(t, err)

	def, _ := m.TypeOf("active")
	assert.Equal(t, FieldBoolean, def.Type)

	def, _ = m.TypeOf("score")
	assert.Equal(t, FieldNumber, def.Type)

	def, _ = m.TypeOf("contact")
	assert.Equal(t, FieldEmail, def.Type)

	def, _ = m.TypeOf("homepage")
	assert.Equal(t, FieldUrl, def.Type)
}

func TestAutoMapGeoPoint(t *testing.T) {
	m := New()
	err := m.AutoMap(map[string]any{
		"location": []any{12.5, 45.2},
	})
	require.NoError(t, err)

	def, ok := m.TypeOf("location")
	require.True(t, ok)
	assert.Equal(t, FieldGeoPoint, def.Type)
}

func TestAutoMapNestedObject(t *testing.T) {
	m := New()
	err := m.AutoMap(map[string]any{
		"author": map[string]any{
			"name": "Jane",
		},
	})
	require.NoError(t, err)

	def, ok := m.TypeOf("author")
	require.True(t, ok)
	assert.Equal(t, FieldObject, def.Type)

	def, ok = m.TypeOf("author.name")
	require.True(t, ok)
	assert.Equal(t, FieldKeyword, def.Type)
}

func TestRegisterFieldConflict(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("count", FieldDef{Type: FieldNumber}))

	err := m.Register("count", FieldDef{Type: FieldText})
	assert.Error(t, err)
}

func TestValidateTypeMismatch(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("age", FieldDef{Type: FieldNumber}))

	err := m.Validate(map[string]any{"age": "not a number"})
	assert.Error(t, err)
}

func TestValidateUnmappedFieldIsIgnored(t *testing.T) {
	m := New()
	err := m.Validate(map[string]any{"anything": 123})
	assert.NoError(t, err)
}

func TestIsTextLikeAndIsFacetable(t *testing.T) {
	assert.True(t, IsTextLike(FieldText))
	assert.True(t, IsTextLike(FieldKeyword))
	assert.False(t, IsTextLike(FieldNumber))

	assert.True(t, IsFacetable(FieldKeyword))
	assert.True(t, IsFacetable(FieldBoolean))
	assert.False(t, IsFacetable(FieldText))
}

func TestTextLikeFields(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("title", FieldDef{Type: FieldText}))
	require.NoError(t, m.Register("status", FieldDef{Type: FieldKeyword}))
	require.NoError(t, m.Register("score", FieldDef{Type: FieldNumber}))

	fields := m.TextLikeFields()
	assert.ElementsMatch(t, []string{"title", "status"}, fields)
}
