package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceKey(t *testing.T) {
	inst := &Instance{Name: "eshop-api", Host: "10.0.0.5", Port: 3000}
	assert.Equal(t, "10.0.0.5:3000", inst.Addr())
	assert.Equal(t, "/services/eshop-api/10.0.0.5:3000", instanceKey("/services/", inst))
}

func TestParseInstance(t *testing.T) {
	inst, err := parseInstance("eshop-api", "10.0.0.5:3000")
	require.NoError(t, err)
	assert.Equal(t, &Instance{Name: "eshop-api", Host: "10.0.0.5", Port: 3000}, inst)

	_, err = parseInstance("eshop-api", "10.0.0.5")
	assert.Error(t, err)

	_, err = parseInstance("eshop-api", "10.0.0.5:http")
	assert.Error(t, err)
}
