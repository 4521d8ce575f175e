// Package store keeps a SQLite history of transfer sessions and their
// metrics, so quality reports can span more than one run.
package store
