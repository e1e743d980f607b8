// Package export projects stored score records into the flat results table.
//
// One row per (judge, entry) record that holds at least one score. Columns:
//
//	judge, entry_id, entry_name, entry_project,
//	"{criterion name} ({weight}%)" per criterion in catalog order,
//	weighted_score, comment, submission_time
//
// Unscored criteria are written as 0 and the weighted score is the partial
// sum, so a partial record is visible in the export but easy to spot.
// The weighted score is written at full precision; display code rounds.
package export
