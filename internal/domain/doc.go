// Package domain defines the core business types for the IGNITE waitlist service.
//
// Types in this package are pure value objects. They are the shared language
// between handlers, services, and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation and state-machine methods are allowed (pure functions on the type)
//   - Constants and enums belong here
package domain
