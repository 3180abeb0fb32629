package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundprediction/go-graphkeeper/pkg/normalize"
)

type payload struct {
	UUID   string `json:"uuid"`
	Name   string
	hidden string
}

func TestFieldMapAccess(t *testing.T) {
	item := map[string]interface{}{
		"uuid": "node-1",
		"name": "Dog Food",
	}

	assert.Equal(t, "node-1", normalize.Field(item, "uuid", ""))
	assert.Equal(t, "Dog Food", normalize.Field(item, "name", ""))
	assert.Equal(t, "fallback", normalize.Field(item, "missing", "fallback"))
}

func TestFieldStructAccess(t *testing.T) {
	item := &payload{UUID: "node-2", Name: "Cat Tree", hidden: "x"}

	assert.Equal(t, "node-2", normalize.Field(item, "uuid", ""))
	assert.Equal(t, "Cat Tree", normalize.Field(item, "name", ""))
	assert.Equal(t, nil, normalize.Field(item, "hidden", nil), "unexported fields are invisible")
}

func TestFieldUUIDAliases(t *testing.T) {
	tests := []struct {
		name string
		item interface{}
		want string
	}{
		{"underscore alias", map[string]interface{}{"uuid_": "via-underscore"}, "via-underscore"},
		{"id alias", map[string]interface{}{"id": "via-id"}, "via-id"},
		{"direct wins over alias", map[string]interface{}{"uuid": "direct", "id": "alias"}, "direct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Field(tt.item, "uuid", ""))
		})
	}
}

func TestFieldDottedPath(t *testing.T) {
	item := map[string]interface{}{
		"attributes": map[string]interface{}{
			"category": "toys",
		},
	}

	assert.Equal(t, "toys", normalize.Field(item, "attributes.category", ""))
	assert.Equal(t, "none", normalize.Field(item, "attributes.missing", "none"))
	assert.Equal(t, "none", normalize.Field(item, "missing.category", "none"))
}

func TestFieldNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		normalize.Field(nil, "uuid", nil)
		normalize.Field(42, "uuid", nil)
		normalize.Field("string", "uuid", nil)
		normalize.Field((*payload)(nil), "uuid", nil)
		normalize.Field(map[int]string{1: "x"}, "uuid", nil)
		normalize.Field(map[string]interface{}{}, "", nil)
	})
}

func TestString(t *testing.T) {
	item := map[string]interface{}{"name": "Bird Cage", "count": 3}

	assert.Equal(t, "Bird Cage", normalize.String(item, "name", ""))
	assert.Equal(t, "def", normalize.String(item, "count", "def"), "non-string values fall back")
	assert.Equal(t, "def", normalize.String(nil, "name", "def"))
}

func TestStrings(t *testing.T) {
	item := map[string]interface{}{
		"labels": []interface{}{"Entity", "Product", 7},
		"typed":  []string{"a", "b"},
	}

	assert.Equal(t, []string{"Entity", "Product"}, normalize.Strings(item, "labels"))
	assert.Equal(t, []string{"a", "b"}, normalize.Strings(item, "typed"))
	assert.Nil(t, normalize.Strings(item, "missing"))
}

func TestMap(t *testing.T) {
	item := map[string]interface{}{
		"attributes": map[string]interface{}{"k": "v"},
	}

	assert.Equal(t, map[string]interface{}{"k": "v"}, normalize.Map(item, "attributes"))
	assert.Nil(t, normalize.Map(item, "missing"))
}
