// Package services implements the driving ports: ingestion
// (SyncOrchestrator), retrieval (SearchService), and the management
// services for sources, documents, settings and statistics, plus the
// background scheduler and filesystem watcher.
//
// Services hold the business rules and orchestrate calls to driven
// ports. They are pure Go with no CGO or external dependencies.
package services
