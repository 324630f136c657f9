// Package checkpoint provides durable key-value persistence of pipeline
// state, keyed by stage name, so every stage is independently resumable.
package checkpoint

// Store persists one JSON document per checkpoint name. A file-backed
// store is the production backend; the interface deliberately does not
// assume a filesystem so tests run against an in-memory store.
type Store interface {
	// Save serializes v under name, overwriting any prior value.
	Save(name string, v any) error

	// Load deserializes the checkpoint named name into v. It returns
	// false (and no error) when no such checkpoint exists, so callers
	// can distinguish "first run" from "resume".
	Load(name string, v any) (bool, error)
}

// Standard checkpoint names. A stage's input name always differs from
// its output name so a stage can never overwrite its own input.
const (
	NameSeeds          = "seeds_final"
	NameSeedsVerified  = "seeds_verified"
	NameCasesPartial   = "cases_partial"
	NameCasesChronicle = "cases_chronicled"
	NameCasesComplete  = "cases_complete"
)
