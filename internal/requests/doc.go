// Package requests persists request records in SQLite and is the single
// source of truth for lifecycle state.
//
// A record exists from the moment a user's query produces candidates
// until the request completes, times out, or is lost downstream;
// terminal states are expressed as absence from the store. The Store
// issues single-statement updates per record, which gives the
// per-key read-modify-write atomicity the lifecycle engine and poller
// rely on when they race on the same id.
package requests
