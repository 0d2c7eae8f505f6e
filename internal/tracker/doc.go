// Package tracker drives the request lifecycle: intake and candidate
// search, disambiguation selection, and the periodic poll sweep that
// advances downloading requests and evicts stale ones.
//
// The Engine handles the user-triggered transitions
// (none -> PENDING_USER -> DOWNLOADING/COMPLETE) and the Poller owns
// the rest (timeout eviction, completion detection, lost-record
// cleanup). Both treat the requests.Store as the single source of
// truth; the selection path re-checks record existence instead of
// holding locks, so a selection racing a timeout sweep resolves to
// "selection no longer available".
package tracker
