package store

import (
	"fmt"

	"cultura/internal/port"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// MigrationResult describes whether an existing index can serve queries
// built with the current settings.
type MigrationResult struct {
	NeedsRebuild bool
	Reason       string
}

// CheckMigration compares the stored index metadata with the settings the
// caller is about to query or build with.
func CheckMigration(stored, want port.IndexMeta) MigrationResult {
	switch {
	case stored.SchemaVersion == 0:
		return MigrationResult{NeedsRebuild: true, Reason: "index has never been built"}
	case stored.SchemaVersion > CurrentSchemaVersion:
		return MigrationResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("database created by newer version (v%d > v%d)", stored.SchemaVersion, CurrentSchemaVersion),
		}
	case stored.SchemaVersion < CurrentSchemaVersion:
		return MigrationResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("schema upgrade from v%d to v%d", stored.SchemaVersion, CurrentSchemaVersion),
		}
	case stored.EmbeddingModel != want.EmbeddingModel || stored.Dimension != want.Dimension:
		return MigrationResult{
			NeedsRebuild: true,
			Reason: fmt.Sprintf("embedding changed from %s/%d to %s/%d",
				stored.EmbeddingModel, stored.Dimension, want.EmbeddingModel, want.Dimension),
		}
	case stored.ChunkConfig != want.ChunkConfig:
		return MigrationResult{NeedsRebuild: true, Reason: "chunking configuration changed"}
	}
	return MigrationResult{}
}
