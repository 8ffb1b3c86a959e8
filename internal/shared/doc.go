// Package shared provides common utilities and test helpers used across the
// curvepulse codebase. It is a home for functionality that doesn't belong to
// any specific domain or architectural layer.
//
// The testutil subpackage provides an in-memory slog handler and assertion
// helpers so packages can verify their structured logging without parsing
// JSON output.
//
// This package should only contain test utilities and generic helpers; no
// business logic, and no dependencies on other internal packages.
package shared
