// Package vectorutils builds a vector.Driver from configuration.
package vectorutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/docent/pkg/vector"
	"github.com/papercomputeco/docent/pkg/vector/chroma"
	"github.com/papercomputeco/docent/pkg/vector/inmemory"
	"github.com/papercomputeco/docent/pkg/vector/pgvector"
	"github.com/papercomputeco/docent/pkg/vector/qdrant"
	"github.com/papercomputeco/docent/pkg/vector/sqlitevec"
)

// Supported provider names.
const (
	ProviderSQLite   = "sqlite"
	ProviderChroma   = "chroma"
	ProviderQdrant   = "qdrant"
	ProviderPgvector = "pgvector"
	ProviderMemory   = "memory"
)

// Providers lists every provider NewVectorDriver accepts.
var Providers = []string{ProviderSQLite, ProviderChroma, ProviderQdrant, ProviderPgvector, ProviderMemory}

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is a file path for sqlite, a URL for chroma, host:port for
	// qdrant and a connection string for pgvector. Unused for memory.
	Target     string
	Collection string
	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch o.ProviderType {
	case ProviderSQLite:
		if o.Target == "" {
			return nil, errors.New("sqlite vector store requires a database path")
		}
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, logger)
	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.Collection,
		}, logger)
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:     o.Target,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, logger)
	case ProviderPgvector:
		return pgvector.NewDriver(ctx, pgvector.Config{
			ConnString: o.Target,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, logger)
	case ProviderMemory:
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
