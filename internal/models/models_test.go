package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/recordsdb/internal/types"
)

func TestStringListUnmarshal(t *testing.T) {
	var post CommunityPost
	require.NoError(t, json.Unmarshal([]byte(`{"tags":"temporalidade, eliminação"}`), &post))
	assert.Equal(t, StringList{"temporalidade", "eliminação"}, post.Tags)

	require.NoError(t, json.Unmarshal([]byte(`{"tags":["guarda"]}`), &post))
	assert.Equal(t, StringList{"guarda"}, post.Tags)
	assert.True(t, post.Tags.Contains("guarda"))
}

func TestStorageCapacityPercentString(t *testing.T) {
	var loc StorageLocation
	require.NoError(t, json.Unmarshal([]byte(`{"organization_id":"org-1","name":"Sala 1","capacity_percentage":"85%"}`), &loc))
	assert.Equal(t, 85, loc.CapacityPercentage.Int())

	loc.ApplyDefaults()
	require.NoError(t, loc.Validate())

	loc.CapacityPercentage = 120
	err := loc.Validate()
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestOrganizationValidate(t *testing.T) {
	assert.ErrorIs(t, Organization{}.Validate(), types.ErrValidation)
	assert.NoError(t, Organization{Name: "Arquivo Público", CNPJ: "12.345.678/0001-90"}.Validate())
	assert.ErrorIs(t, Organization{Name: "Arquivo Público", CNPJ: "123"}.Validate(), types.ErrValidation)
}

func TestAllRecords(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range All() {
		rec, ok := m.(Record)
		require.True(t, ok, "%T", m)
		assert.False(t, seen[rec.TableName()], "duplicate table %s", rec.TableName())
		seen[rec.TableName()] = true
	}
	assert.Len(t, seen, 15)
}
