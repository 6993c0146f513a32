// Package postgres provides PostgreSQL implementations of the persistence
// interfaces defined in the store package, using the pgx driver through the
// standard database/sql interface.
//
// Every mutation of reminder state is a single conditional UPDATE statement.
// The mark-as-sent compare-and-swap in particular must stay a one-statement
// operation: it is the sole mechanism that keeps concurrent dispatches and
// overlapping scan cycles from double-sending.
package postgres
