package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeHelpers(t *testing.T) {
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "web_service",
		"suspended": "not_suspended",
		"numInstances": 3
	}`), &data))

	assert.Equal(t, "web_service", GetString(data, "type"))
	assert.Equal(t, "", GetString(data, "numInstances"))
	assert.Equal(t, "", GetString(data, "missing"))

	assert.Equal(t, 3, GetInt(data, "numInstances"))
	assert.Equal(t, 0, GetInt(data, "type"))
	assert.Equal(t, 7, GetInt(map[string]interface{}{"n": int64(7)}, "n"))

	assert.Equal(t, "", GetString(nil, "type"))
}
