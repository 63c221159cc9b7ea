package handler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const membersSchemaURL = "https://uniportal.local/schemas/group-members.json"

const membersSchemaJSON = `{
	"type": "object",
	"required": ["members"],
	"additionalProperties": false,
	"properties": {
		"members": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"additionalProperties": false,
				"properties": {
					"id": {"type": "integer", "minimum": 1},
					"name": {"type": "string"},
					"email": {"type": "string"},
					"is_creator": {"type": "boolean"}
				}
			}
		}
	}
}`

func mustCompileSchema(name, source string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
	if err != nil {
		panic(fmt.Sprintf("parse schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// validateBody проверяет тело запроса по схеме до разбора в структуры
func validateBody(schema *jsonschema.Schema, body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request body is not valid JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("request body does not match schema: %w", err)
	}
	return nil
}
