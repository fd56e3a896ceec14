// Package database provides SQLite connectivity for IoT Connect Core.
//
// This package manages:
//   - Database connection with WAL mode and foreign keys enabled
//   - Goose schema migrations from an embedded filesystem
//   - Connection pooling and lifecycle management
//
// The unique indexes declared by the migrations (user email, device key,
// topic name, device/controllable name pair) are what keeps concurrent
// requests consistent; repositories rely on them instead of locks.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
