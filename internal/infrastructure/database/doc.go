// Package database provides SQLite connectivity for the local store backend.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations from an fs.FS (the migrations package embeds them)
//   - Transactions via WithTx
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql. Migrations are
// additive; there is no automatic rollback.
package database
