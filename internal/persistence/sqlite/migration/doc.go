// Package migration applies versioned SQL schema changes to SQLite databases.
//
// Migration files are read from an fs.FS (normally an embed.FS compiled into the
// binary) and follow the naming convention {version}_{description}.sql, e.g.
// "001_create_users.sql". Applied versions are tracked in a schema_migrations
// table and each file runs inside its own transaction.
//
//	manager := migration.NewManager(
//		migration.NewScanner(files, "migrations"),
//		migration.NewSQLiteExecutor(db),
//		logger,
//	)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
