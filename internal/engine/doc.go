// Package engine implements judging sessions on top of the score store.
//
// An Engine is shared by all judges. Engine.Open turns a raw judge name into
// a canonical identity, registers the judge and returns a Session. Every
// Session operation is scoped to that one identity, so two judges can never
// touch each other's records.
//
// Write paths:
//
//   - Save replaces a record wholesale (explicit save).
//   - SetScore and SetComment load the stored record, merge one field in
//     memory and save the result (auto-save on every edit).
//
// Both paths end in the same store upsert, so a rating is durable as soon as
// the call returns. Calls on one Session are serialized; separate Sessions
// for the same judge are not, and the last save wins.
//
// Operations are timed and counted through metrics.Recorder and failures are
// logged with slog. The engine never retries a failed save.
package engine
