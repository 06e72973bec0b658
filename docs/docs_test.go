package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	SwaggerInfo.Host = "localhost:8080"
	SwaggerInfo.Schemes = []string{"http"}

	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed struct {
		Host  string                    `json:"host"`
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "localhost:8080", parsed.Host)
	assert.Contains(t, parsed.Paths, "/documents")
	assert.Contains(t, parsed.Paths["/documents/validate"], "post")
	assert.Contains(t, parsed.Paths["/analyses/{id}/export"], "get")
	assert.Contains(t, parsed.Paths["/documents/{id}/download"], "get")
}
