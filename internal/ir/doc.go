// Package ir provides the core data model for scorecard.
//
// This package contains type definitions and a small set of pure helpers.
// All other internal packages import ir; ir imports nothing internal. This
// keeps the data model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Catalogs are immutable once built; accessors return copies
//   - Raw scores are integers in [1,5]; floats only appear in derived values
//   - All JSON tags use snake_case
//   - Timestamps are stored and exported in UTC
package ir
