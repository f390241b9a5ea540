// Package database provides SQLite connectivity for the gateway's
// execution store.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Connection pooling and lifecycle management
//
// Schema bootstrap is the caller's responsibility (see internal/audit),
// via an idempotent CREATE TABLE IF NOT EXISTS rather than a versioned
// migration ledger — the execution store's schema is small and stable
// enough that the extra machinery isn't worth carrying.
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "data/audit.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package database
