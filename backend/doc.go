// Package backend provides data source abstractions and a registry for
// the tables analysis scripts run against.
//
// This package defines the core Source interface and provides
// infrastructure for managing multiple sources:
//
//   - Source interface for table providers (in-memory, CSV directories,
//     PostgreSQL schemas)
//   - Registry for managing and discovering sources
//   - Aggregator for loading tables by "source:table" ID
//   - Query for in-memory filtering, ordering and projection
//   - Views for the enriched tables joined over another source
//   - Schema for checking tables as they load
//
// # Registry
//
// The Registry manages source lifecycle:
//
//	registry := backend.NewRegistry()
//	registry.RegisterFactory(csvdir.Kind, csvdir.Factory)
//	registry.Create(csvdir.Kind, "season", []byte("dir: ./data"))
//
// # Aggregator
//
// The Aggregator resolves table IDs across sources. A bare table name is
// looked up in every enabled source in name order:
//
//	agg := backend.NewAggregator(registry)
//	players, _ := agg.Load(ctx, "season:players", backend.Query{Limit: 10})
//
// # Queries
//
// Filters use the operators eq, neq, gt, gte, lt, lte, in, ilike and is.
// Sources apply them in memory with Query.Apply or push them down, as the
// postgres source does.
// Unknown columns fail with a *table.ColumnError whose hint names the
// canonical column for common mistakes such as "points" or "gw".
//
// # Views
//
// A views source serves tables such as "squad" with lookup ids resolved
// to names from the base source's players, teams and positions tables:
//
//	registry.RegisterFactory(backend.ViewsKind, backend.ViewsFactory(registry))
//	registry.Create(backend.ViewsKind, "enriched", []byte("base: season"))
package backend
