// Package domain defines the core business entities for jbsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Product: A JetBrains product and its edition naming
//   - PageData: The parsed download page (version + artifact URLs)
//   - SyncRecord: The last version successfully published for a product
//   - Release/Asset: The hosting platform's publication units
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
