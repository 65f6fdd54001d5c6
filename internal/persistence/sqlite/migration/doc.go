// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files are named {version}_{description}.sql (for example
// "001_initial_schema.sql") and are read from an fs.FS, normally an embedded
// directory. Applied versions are recorded in the schema_migrations table so
// each file runs once, inside its own transaction.
package migration
