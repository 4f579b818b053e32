// Package waitlist implements the signup orchestration flow.
//
// The service layer ties validation, persistence, and confirmation-email
// dispatch together and decides the caller-visible response. It depends on
// the repository and dispatcher interfaces defined in this package and
// should never import from the api/ layer.
//
// The repository implementation lives in repository/postgres/.
package waitlist
