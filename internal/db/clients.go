package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/mattn/go-sqlite3"
)

// applicationName identifies metadata sessions in pg_stat_activity
const applicationName = "syncschema"

// PostgresClient holds a single PostgreSQL connection used for catalog queries
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient connects and pings. The session is tagged with an application_name
// unless the connection string sets one.
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL connection string: %w", err)
	}
	if _, ok := cfg.RuntimeParams["application_name"]; !ok {
		cfg.RuntimeParams["application_name"] = applicationName
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{conn: conn}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// GetConnection returns the underlying connection
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

// MySQLClient holds the MySQL connection pool used for information_schema queries
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient parses the DSN, opens a pool through the driver's connector and pings it
func NewMySQLClient(ctx context.Context, dsn string) (*MySQLClient, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := ping(ctx, sql.OpenDB(connector))
	if err != nil {
		return nil, err
	}
	return &MySQLClient{db: db}, nil
}

// NewMySQLClientFromDB wraps an already opened pool
func NewMySQLClientFromDB(db *sql.DB) *MySQLClient {
	return &MySQLClient{db: db}
}

// Close closes the pool
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying pool
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// ParseDatabaseName returns the database named in a MySQL DSN
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("MySQL DSN has no database name")
	}
	return cfg.DBName, nil
}

// SQLiteClient holds a SQLite database handle
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens the database file at path
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	handle, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := ping(ctx, handle)
	if err != nil {
		return nil, err
	}
	return &SQLiteClient{db: db}, nil
}

// Close closes the database handle
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying handle
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// ping verifies db is reachable, closing it on failure
func ping(ctx context.Context, db *sql.DB) (*sql.DB, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
