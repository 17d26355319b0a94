// Package report collects qualcheck diagnostics and filters them by suppression scopes.
//
// Core components:
//
//   - Reporter
//     Accumulates diagnostics of a package pass. Producers get a phase-bound
//     view with Phase and optionally Checker, so every report carries the
//     stage and the checker it came from.
//
//   - Scopes
//     Span index built from //qual:ignore directives. A diagnostic is dropped
//     when any span covering its position suppresses its rule.
//
// Diagnostics are emitted only after the whole package was checked, sorted by
// position, which keeps the output independent from traversal order.
package report
