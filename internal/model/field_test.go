package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFieldRegistry(t *testing.T) {
	t.Parallel()

	fields := []Field{
		{Name: "Company Name", Type: FieldTypeText},
		{Name: "Date Created", Type: FieldTypeDate},
		{Name: "Created", Type: FieldTypeDateTime},
		{Name: "created", Type: FieldTypeText},
		{Name: "Enquiry Source", Type: FieldTypeSelect},
	}

	reg := NewFieldRegistry(fields)

	t.Run("ByName is exact", func(t *testing.T) {
		t.Parallel()
		f, ok := reg.ByName("created")
		require.True(t, ok)
		assert.Equal(t, FieldTypeText, f.Type)

		_, ok = reg.ByName("enquiry source")
		assert.False(t, ok)
	})

	t.Run("ByNameFold keeps the first match", func(t *testing.T) {
		t.Parallel()
		f, ok := reg.ByNameFold("CREATED")
		require.True(t, ok)
		assert.Equal(t, "Created", f.Name)
		assert.Equal(t, FieldTypeDateTime, f.Type)
	})

	t.Run("ByNameFold unknown", func(t *testing.T) {
		t.Parallel()
		_, ok := reg.ByNameFold("nonexistent")
		assert.False(t, ok)
	})

	t.Run("DateFields in declaration order", func(t *testing.T) {
		t.Parallel()
		dates := reg.DateFields()
		require.Len(t, dates, 2)
		assert.Equal(t, "Date Created", dates[0].Name)
		assert.Equal(t, "Created", dates[1].Name)
	})

	t.Run("Names", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"Company Name", "Date Created", "Created", "created", "Enquiry Source"}, reg.Names())
	})
}

func TestNewFieldRegistry_Empty(t *testing.T) {
	t.Parallel()

	reg := NewFieldRegistry(nil)
	assert.Empty(t, reg.DateFields())
	assert.Empty(t, reg.Names())
	_, ok := reg.ByName("x")
	assert.False(t, ok)
}

func TestFieldType_IsDate(t *testing.T) {
	t.Parallel()

	assert.True(t, FieldTypeDate.IsDate())
	assert.True(t, FieldTypeDateTime.IsDate())
	assert.False(t, FieldTypeText.IsDate())
	assert.False(t, FieldTypeOther.IsDate())
}
