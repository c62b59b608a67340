// Package driven holds the secondary ports: the interfaces core
// services call outward through, implemented by infrastructure
// adapters.
//
// The application needs an implementation of each of these to run:
//
//   - Connector: reads raw documents out of a content directory
//   - ConnectorFactory: builds connectors from source configuration
//   - Normaliser: turns a raw document into indexable form
//   - NormaliserRegistry: picks the normaliser for a MIME type
//   - PostProcessorPipeline: splits documents into chunks
//   - DocumentStore: documents and chunks
//   - SourceStore: source configuration
//   - ManifestStore: ingestion fingerprints
//   - ExclusionStore: pruned documents
//   - ConfigStore: application settings
//
// A few ports may be left nil and the application degrades rather than
// fails:
//
//   - EmbeddingService: without it, sync stores documents but indexes
//     nothing, and search reports itself unavailable
//   - VectorIndex: only useful alongside an EmbeddingService
//   - SchedulerStore: without it the periodic background re-sync is
//     disabled; watch mode still works
//
// Files here import the domain package and nothing else of the
// application, so adapters and services can both depend on them.
package driven
