// Package store persists todos and the local purchase log in SQLite using
// the pure-Go modernc.org/sqlite driver.
//
// Every operation opens its own handle and closes it before returning, so
// no connection outlives a request. Callers classify failures with
// errors.Is against ErrConnect and ErrInsert.
package store
