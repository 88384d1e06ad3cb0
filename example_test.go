package schemaforge_test

import (
	"fmt"
	"log"

	schemaforge "github.com/schemaforge/schemaforge-go"
	"github.com/schemaforge/schemaforge-go/planopts"
)

func ExampleEngine_Run() {
	eng := schemaforge.NewEngine()

	schema := map[string]any{
		"type":     "object",
		"required": []any{"id", "active"},
		"properties": map[string]any{
			"id":     map[string]any{"type": "string", "minLength": 3},
			"active": map[string]any{"type": "boolean"},
		},
	}

	results, _, err := eng.Run(schema, planopts.New(planopts.WithCount(1), planopts.WithSeed(7)))
	if err != nil {
		log.Fatal(err)
	}

	value, ok := results[0].Value()
	if !ok {
		log.Fatal(results[0].Error())
	}

	obj := value.(map[string]any)
	fmt.Println(len(obj["id"].(string)) >= 3)
	fmt.Println(obj["active"])
	// Output:
	// true
	// false
}

func ExampleEngine_Run_unsatisfiable() {
	eng := schemaforge.NewEngine()

	schema := map[string]any{
		"type":     "object",
		"required": []any{"x"},
		"properties": map[string]any{
			"x": false,
		},
	}

	results, _, err := eng.Run(schema, nil)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(results[0].IsErr())
	fmt.Println(results[0].Error().Kind)
	// Output:
	// true
	// unsatisfiable
}
