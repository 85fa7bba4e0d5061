// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"
)

// ShopContracts is a contract document exercising every request location.
const ShopContracts = `
definitions:
  Address:
    type: object
    required: [city]
    properties:
      street: {type: string}
      city: {type: string, minLength: 2}
  Seller:
    type: object
    required: [name, address]
    properties:
      name: {type: string}
      address: {$ref: "#/definitions/Address"}
  Item:
    type: object
    required: [name, price, tags]
    additionalProperties: false
    properties:
      name: {type: string, minLength: 1}
      price: {type: number, exclusiveMinimum: 0}
      tags:
        type: array
        maxItems: 10
        items: {type: string}
      seller: {$ref: "#/definitions/Seller"}
routes:
  - name: list_items
    method: GET
    path: /items
    parameter_schema:
      type: object
      required: [limit]
      properties:
        limit: {type: integer, exclusiveMinimum: 0, source: query}
        offset: {type: integer, minimum: 0, default: 0, source: query}
        tags: {type: array, items: {type: string}, separator: "|", source: query}
        active: {type: boolean, source: query}
  - name: get_item
    method: GET
    path: /items/{item_id}
    parameter_schema:
      type: object
      properties:
        item_id: {type: string, format: uuid, source: path}
        x-api-key: {type: string, pattern: "[a-z0-9]{16}", source: header}
        session: {type: string, minLength: 8, source: cookie}
      required: [x-api-key]
  - name: create_item
    method: POST
    path: /items
    request_schema: {$ref: "#/definitions/Item"}
  - name: checkout
    method: POST
    path: /checkout
    request_schema:
      type: object
      properties:
        credit_card: {type: string, pattern: "[0-9]{16}"}
        paypal_email: {type: string, format: email}
      oneOf:
        - required: [credit_card]
        - required: [paypal_email]
  - name: upload_document
    method: POST
    path: /documents
    request_schema:
      type: object
      properties:
        title: {type: string}
    body_optional: true
    file_params:
      document:
        required: true
        content_type: [application/pdf, image/png]
        validate_magic_numbers: true
        max_size: 1048576
      thumbnail:
        content_type: image/*
        non_empty: true
`

// PDFBytes starts with the PDF signature.
var PDFBytes = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

// PNGBytes starts with the PNG signature.
var PNGBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// WriteTempFile writes data to name inside a per-test temporary directory
// and returns its path.
func WriteTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}
	return path
}

// WriteTempYAML marshals doc to YAML and writes it to a temporary file.
// The file is removed when the test completes.
func WriteTempYAML(t *testing.T, doc any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to marshal document to YAML: %v", err)
	}
	return WriteTempFile(t, "test.yaml", data)
}

// WriteTempJSON marshals doc to JSON and writes it to a temporary file.
// The file is removed when the test completes.
func WriteTempJSON(t *testing.T, doc any) string {
	t.Helper()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal document to JSON: %v", err)
	}
	return WriteTempFile(t, "test.json", data)
}
