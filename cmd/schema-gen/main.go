// Schema Generator
//
// Generates JSON Schema files from the catalog API types so client services
// can generate their own bindings. Go is the source of truth for these types.
//
// Usage:
//
//	go run ./cmd/schema-gen -out schemas
//
// Output:
//
//	schemas/catalog.json
//	schemas/price-lists.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	"github.com/bizsuite/catalog-service/internal/catalog"
	"github.com/bizsuite/catalog-service/internal/handlers"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

var schemaGroups = []SchemaGroup{
	{
		Name: "catalog",
		Types: []any{
			// Request types
			handlers.PriceGridRequest{},
			// Response types
			catalog.GridRow{},
			catalog.ItemGrid{},
			handlers.PriceGridResponse{},
		},
		Output: "catalog.json",
	},
	{
		Name: "price-lists",
		Types: []any{
			handlers.ListPriceListsRequest{},
			handlers.PriceListSummary{},
			handlers.ListPriceListsResponse{},
			handlers.MatrixResponse{},
		},
		Output: "price-lists.json",
	},
}

func main() {
	outputDir := flag.String("out", "schemas", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, group := range schemaGroups {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(*outputDir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s\n", outputPath)
	}

	fmt.Println("Schema generation complete!")
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// mapType renders decimals the way they are serialized: as numeric strings
func mapType(t reflect.Type) *jsonschema.Schema {
	if t == decimalType {
		return &jsonschema.Schema{
			Type:    "string",
			Pattern: `^-?[0-9]+(\.[0-9]+)?$`,
		}
	}
	return nil
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{
		DoNotReference: false,
		ExpandedStruct: false,
		Mapper:         mapType,
	}

	definitions := make(map[string]any)

	for _, t := range group.Types {
		schema := reflector.Reflect(t)

		// Get the type name from a $ref like "#/$defs/ItemGrid"
		typeName := ""
		if schema.Ref != "" {
			typeName = filepath.Base(schema.Ref)
		}

		for name, def := range schema.Definitions {
			definitions[name] = def
		}

		if typeName != "" && schema.Definitions[typeName] != nil {
			definitions[typeName] = schema.Definitions[typeName]
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://bizsuite.dev/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
