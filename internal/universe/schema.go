package universe

import (
	"github.com/invopop/jsonschema"

	"prospero-server/internal/star"
	"prospero-server/internal/system"
)

// SnapshotSchema describes the JSON document served by the snapshot
// endpoint and written by the -snapshot flag.
func SnapshotSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	root := reflector.Reflect(&Snapshot{})
	root.Title = "Prospero World Snapshot"
	root.Description = "Procedurally generated star systems with their primary stars."

	systemSchema := reflector.Reflect(&system.System{})
	systemSchema.Version = ""
	systemSchema.Title = "Star System"

	starSchema := reflector.Reflect(&star.Star{})
	starSchema.Version = ""
	starSchema.Title = "Primary Star"
	starSchema.Properties.Set("system", &jsonschema.Schema{
		Type:        "integer",
		Description: "Index of the owning system in the systems array",
	})
	classes := make([]interface{}, 0, len(star.SpectralClasses))
	for _, class := range star.SpectralClasses {
		classes = append(classes, string(class))
	}
	starSchema.Properties.Set("spectral_class", &jsonschema.Schema{
		Type: "string",
		Enum: classes,
	})

	root.Properties.Set("systems", &jsonschema.Schema{
		Type:        "array",
		Description: "Systems in index order",
		Items:       systemSchema,
	})
	root.Properties.Set("stars", &jsonschema.Schema{
		Type:        "array",
		Description: "Primary stars in index order; empty when star generation is disabled",
		Items:       starSchema,
	})

	return root
}
