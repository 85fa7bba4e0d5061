package testutil

import (
	"os"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func TestShopContracts_IsValidYAML(t *testing.T) {
	var doc struct {
		Definitions map[string]any   `yaml:"definitions"`
		Routes      []map[string]any `yaml:"routes"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(ShopContracts), &doc))
	assert.Contains(t, doc.Definitions, "Item")
	assert.Len(t, doc.Routes, 5)
}

func TestWriteTempYAML(t *testing.T) {
	path := WriteTempYAML(t, map[string]any{"routes": []any{}})
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "routes")
}

func TestWriteTempJSON(t *testing.T) {
	path := WriteTempJSON(t, map[string]any{"name": "x"})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "x", got["name"])
}

func TestSignatures(t *testing.T) {
	assert.Equal(t, "%PDF-", string(PDFBytes[:5]))
	assert.Equal(t, byte(0x89), PNGBytes[0])
}
