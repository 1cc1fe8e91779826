package database

import (
	"errors"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// buildMySQLDSN delegates to the driver's own formatter instead of string
// concatenation, so credentials carrying reserved characters survive.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	dc := mysqldriver.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = fmt.Sprintf("%s:%d", host, port)
	dc.DBName = cfg.Name
	dc.ParseTime = true
	dc.Loc = time.Local
	dc.Params = map[string]string{"charset": "utf8mb4"}
	for key, value := range cfg.Options {
		dc.Params[key] = value
	}

	return dc.FormatDSN(), nil
}
