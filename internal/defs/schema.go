package defs

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema reflects the catalog file format for editor tooling.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(Catalog{}))
	schema.Title = "Arena Definition Catalog"
	schema.Description = "Weapons, ammo, entities, items and powerups consumed by the arena simulation."
	return schema
}
