// Package db is the database handle used by the query builder and models.
//
// It wraps [database/sql] prepared statements behind a small DAO with
// execute/select/insert/update/delete primitives and context-scoped
// transactions. Three drivers are supported:
//
//   - postgres via [github.com/jackc/pgx/v5/stdlib] (driver name "pgx")
//   - mysql via [github.com/go-sql-driver/mysql]
//   - sqlite via [modernc.org/sqlite]
//
// Statements are always written with "?" placeholders and rebound to the
// dialect's syntax before execution.
//
// # Errors
//
// Outside of a transaction, driver failures are returned as *QueryError.
// Inside a transaction the DAO returns ErrTxStatementFailed (joined with the
// driver error) and marks the transaction as failed, leaving the rollback
// decision to the caller:
//
//	err := dao.WithTx(ctx, func(ctx context.Context) error {
//		if _, err := dao.Exec(ctx, "UPDATE t_droit SET dro_libelle = ? WHERE dro_id = ?", "Admin", 2); err != nil {
//			return err // rolled back
//		}
//		return nil
//	})
//
// # Configuration
//
// Connection settings follow the DB_* environment variables:
//
//	DB_CONNECTION - driver: pgx, mysql or sqlite (default: pgx)
//	DB_HOST       - server host (default: localhost)
//	DB_PORT       - server port
//	DB_DATABASE   - database name, or file path for sqlite
//	DB_USERNAME   - user
//	DB_PASSWORD   - password
//	DB_DSN        - full DSN, overrides the fields above
//
// # Migrations
//
// Migrate applies goose migrations from an fs.FS. Migrations are looked up in
// a sub-directory named after the dialect (postgres, mysql, sqlite).
package db
