// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// The sync orchestrator depends on these interfaces, and infrastructure
// adapters implement them:
//
//   - PageParser: Extracts version and artifact URLs from a download page
//   - ArtifactFetcher: Streams an artifact URL to a local file
//   - ReleasePublisher: Release get-or-create and asset upload
//   - StateStore: Sync record persistence
//   - Committer: Stages and commits the state file to version control
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
