// Package sqlitedriver registers the pure-Go modernc.org/sqlite driver under
// the database/sql name "sqlite3", matching the name the CGO-based drivers
// use so DSNs stay portable.
//
// Import this package for its side effects only:
//
//	import _ "github.com/teradata-labs/quill/internal/sqlitedriver"
package sqlitedriver
