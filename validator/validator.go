// Package validator defines the engine's external reference-validator
// boundary (spec.md §6): a narrow interface the core depends on for
// cross-checking a generated value against a schema document (Generate
// passes normalized oneOf branches), plus a concrete implementation backed by
// github.com/santhosh-tekuri/jsonschema/v5.
//
// Grounded on schemaprofile.Fetcher's shape (a small interface the core
// depends on for external I/O, with no built-in network/filesystem
// implementation bundled into the core packages) and on
// openbindings-go/formats/operationgraph's go.mod, which already requires
// santhosh-tekuri/jsonschema/v5 for JSON Schema compilation elsewhere in
// the pack.
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Adapter validates a generated instance against a JSON Schema document.
// Generate calls Validate only for its oneOf exclusivity check
// (generate/union.go); it does not validate finished items (spec.md §6).
type Adapter interface {
	// Validate reports every validation error found for instance against
	// schema, or nil if instance conforms.
	Validate(schema map[string]any, instance any) error
}

// AJVFlags mirrors the subset of AJV validator configuration flags that
// affect draft interpretation, recorded for AJV_FLAGS_MISMATCH detection.
type AJVFlags struct {
	Strict       bool
	AllErrors    bool
	ValidateFormats bool
}

// JSONSchemaAdapter implements Adapter using santhosh-tekuri/jsonschema/v5.
type JSONSchemaAdapter struct {
	Flags AJVFlags
}

// New returns a JSONSchemaAdapter with the given flag configuration.
func New(flags AJVFlags) *JSONSchemaAdapter {
	return &JSONSchemaAdapter{Flags: flags}
}

// ValidationError wraps one or more schema violations found by Validate.
type ValidationError struct {
	Details *jsonschema.ValidationError
}

func (e *ValidationError) Error() string {
	if e.Details == nil {
		return "validator: schema violation"
	}
	return e.Details.Error()
}

func (e *ValidationError) Unwrap() error { return e.Details }

// Validate compiles schema in-process (no network/file resolution — every
// $ref must already be inlined by Normalize before this boundary is
// reached) and checks instance against it.
func (a *JSONSchemaAdapter) Validate(schema map[string]any, instance any) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("validator: marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if a.Flags.ValidateFormats {
		compiler.AssertFormat = true
	}
	const resourceURL = "mem://schema.json"
	if err := compiler.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("validator: add resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("validator: compile: %w", err)
	}

	instanceJSON, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("validator: marshal instance: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(instanceJSON, &decoded); err != nil {
		return fmt.Errorf("validator: decode instance: %w", err)
	}

	if err := compiled.Validate(decoded); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return &ValidationError{Details: ve}
		}
		return err
	}
	return nil
}

// CheckAJVParity compares observed against the adapter's own configured
// flags and returns AJV_FLAGS_MISMATCH-style details when they diverge.
// The engine itself does not call it; the result depends only on the
// flags, not on any instance (spec.md §6).
func (a *JSONSchemaAdapter) CheckAJVParity(observed AJVFlags) (mismatched bool, details map[string]any) {
	details = map[string]any{}
	if observed.Strict != a.Flags.Strict {
		details["strict"] = map[string]any{"expected": a.Flags.Strict, "observed": observed.Strict}
	}
	if observed.AllErrors != a.Flags.AllErrors {
		details["allErrors"] = map[string]any{"expected": a.Flags.AllErrors, "observed": observed.AllErrors}
	}
	if observed.ValidateFormats != a.Flags.ValidateFormats {
		details["validateFormats"] = map[string]any{"expected": a.Flags.ValidateFormats, "observed": observed.ValidateFormats}
	}
	return len(details) > 0, details
}
