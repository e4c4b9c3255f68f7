// connection.go
//
// Records management and archival governance data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recordsdb.
// recordsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recordsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recordsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package database

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/models"
)

// Dialector builds the gorm dialector for cfg.DBType using the given
// credentials.
func Dialector(cfg *config.Config, user, password string) (gorm.Dialector, error) {
	switch cfg.DBType {
	case "mysql", "mariadb":
		return mysql.Open(MySQLDSN(cfg, user, password)), nil

	case "postgres", "postgresql":
		return postgres.Open(PostgresDSN(cfg, user, password)), nil

	case "sqlite":
		// DBDatabase is the file path
		return cgosqlite.Open(cfg.DBDatabase), nil

	case "sqlite-purego":
		return sqlite.Open(cfg.DBDatabase), nil

	case "sqlserver", "mssql":
		return sqlserver.Open(SQLServerDSN(cfg, user, password)), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// MySQLDSN formats a go-sql-driver DSN.
func MySQLDSN(cfg *config.Config, user, password string) string {
	mc := gomysql.NewConfig()
	mc.User = user
	mc.Passwd = password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBDatabase
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// PostgresDSN formats a key/value libpq DSN.
func PostgresDSN(cfg *config.Config, user, password string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, user, password, cfg.DBDatabase, cfg.DBPort)
}

// SQLServerDSN formats a sqlserver:// URL.
func SQLServerDSN(cfg *config.Config, user, password string) string {
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(cfg.DBHost, cfg.DBPort),
		RawQuery: url.Values{"database": {cfg.DBDatabase}}.Encode(),
	}
	return u.String()
}

// LogLevel maps DB_LOG_LEVEL onto the gorm logger.
func LogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent", "off":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

func open(cfg *config.Config, user, password string, limit int, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dialector, err := Dialector(cfg, user, password)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(LogLevel(cfg.DBLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if limit > 0 {
		sqlDB.SetMaxOpenConns(limit)
		sqlDB.SetMaxIdleConns(max(limit/2, 1))
	}

	log.Info("connected to database",
		zap.String("type", cfg.DBType),
		zap.String("database", cfg.DBDatabase),
		zap.String("user", user))

	return db, nil
}

// Connect opens the application connection pool.
func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	return open(cfg, cfg.DBAppUser, cfg.DBAppPassword, cfg.DBAppConnectionLimit, log)
}

// ConnectAdmin opens a single-connection pool with the admin credentials,
// used for migrations and seeding.
func ConnectAdmin(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	user, password := cfg.AdminUser()
	return open(cfg, user, password, 1, log)
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
