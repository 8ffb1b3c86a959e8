// Package services implements the business logic layer between the HTTP
// transport and the curve domain package.
//
// Services follow these principles:
//
//	1. Context propagation for cancellation and tracing
//	2. Dependency injection for loose coupling
//	3. Validation at the service boundary
//	4. Domain errors surfaced unwrapped so handlers can branch on them
//
// The transport layer parses wire input into request structs; services
// apply configured defaults, validate, consult the table cache, and project
// the resulting rate table into response shapes.
package services
