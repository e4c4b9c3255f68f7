package database

import (
	"path/filepath"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/logging"
	"github.com/localnerve/recordsdb/internal/models"
)

func TestConnectSQLitePureGo(t *testing.T) {
	cfg := &config.Config{
		DBType:               "sqlite-purego",
		DBDatabase:           filepath.Join(t.TempDir(), "records.db"),
		DBAppConnectionLimit: 4,
		DBLogLevel:           "silent",
	}
	log, logs := logging.NewObserved()

	db, err := Connect(cfg, log)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))
	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "table for %T", m)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 4, sqlDB.Stats().MaxOpenConnections)
	assert.Equal(t, 1, logs.FilterMessage("connected to database").Len())
}

func TestConnectAdminUsesSingleConnection(t *testing.T) {
	cfg := &config.Config{
		DBType:     "sqlite",
		DBDatabase: filepath.Join(t.TempDir(), "admin.db"),
		DBLogLevel: "silent",
	}
	db, err := ConnectAdmin(cfg, nil)
	require.NoError(t, err)
	defer Close(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestUnsupportedType(t *testing.T) {
	_, err := Connect(&config.Config{DBType: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestMySQLDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "3306", DBDatabase: "records"}
	dsn := MySQLDSN(cfg, "app", "p@ss:word")

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "records", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])
}

func TestPostgresAndSQLServerDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "pg", DBPort: "5432", DBDatabase: "records"}
	assert.Equal(t,
		"host=pg user=app password=secret dbname=records port=5432 sslmode=disable TimeZone=UTC",
		PostgresDSN(cfg, "app", "secret"))

	cfg.DBPort = "1433"
	assert.Equal(t, "sqlserver://sa:secret@pg:1433?database=records", SQLServerDSN(cfg, "sa", "secret"))
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, LogLevel("off"))
	assert.Equal(t, logger.Error, LogLevel("ERROR"))
	assert.Equal(t, logger.Info, LogLevel("debug"))
	assert.Equal(t, logger.Warn, LogLevel(""))
}
