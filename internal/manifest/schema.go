package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaURL is the identifier of the embedded manifest schema.
const SchemaURL = "https://vicius.example/schema/updates.json"

//go:embed schema/updates.schema.json
var schemaJSON []byte

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaOnce sync.Once
	compiledSchemaErr  error
)

// Schema returns the raw JSON schema describing the manifest document.
func Schema() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

func loadSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compiledSchemaErr = fmt.Errorf("failed to parse manifest schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		compiler.DefaultDraft(jsonschema.Draft2020)
		if err := compiler.AddResource(SchemaURL, doc); err != nil {
			compiledSchemaErr = fmt.Errorf("failed to add manifest schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile(SchemaURL)
	})
	return compiledSchema, compiledSchemaErr
}

// ValidateDocument validates an encoded manifest against the embedded schema.
func ValidateDocument(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: document is not valid JSON: %w", ErrValidation, err)
	}

	if err := schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return fmt.Errorf("%w: %s", ErrValidation, validationErr)
		}
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
