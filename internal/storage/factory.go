package storage

import (
	"fmt"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	surrealstore "github.com/bobmcallan/tenk/internal/storage/surrealdb"
)

// NewSectionStore builds the section store selected by configuration.
// Supported backends are "file", "memory", and "surrealdb".
func NewSectionStore(logger *common.Logger, cfg *common.Config) (interfaces.SectionStore, error) {
	switch cfg.Storage.Backend {
	case "", "file":
		return NewFileStore(logger, cfg.Storage.Path)
	case "memory":
		return NewMemoryStore(), nil
	case "surrealdb":
		return surrealstore.NewStore(logger, cfg.Storage.SurrealDB)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
