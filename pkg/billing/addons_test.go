package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/catalog"
)

func TestAddOnSet(t *testing.T) {
	s := NewAddOnSet(catalog.AddOnDatabase, catalog.AddOnCoder, catalog.AddOnDatabase)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"coder_package", "database_package"}, s.Strings())

	without := s.Without(catalog.AddOnCoder)
	assert.False(t, without.Has(catalog.AddOnCoder))
	assert.True(t, s.Has(catalog.AddOnCoder), "Without must not modify the receiver")

	with := NewAddOnSet().With(catalog.AddOnCoder)
	assert.True(t, with.Has(catalog.AddOnCoder))

	var nilSet AddOnSet
	assert.False(t, nilSet.Has(catalog.AddOnCoder))
	assert.Equal(t, 1, nilSet.With(catalog.AddOnCoder).Len())
}

func TestAddOnSet_JSON(t *testing.T) {
	data, err := json.Marshal(NewAddOnSet(catalog.AddOnDatabase, catalog.AddOnCoder))
	require.NoError(t, err)
	assert.JSONEq(t, `["coder_package","database_package"]`, string(data))

	empty, err := json.Marshal(NewAddOnSet())
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(empty))

	var decoded AddOnSet
	require.NoError(t, json.Unmarshal([]byte(`["coder_package","coder_package"]`), &decoded))
	assert.Equal(t, 1, decoded.Len())
}
