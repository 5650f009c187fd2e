package mysql

import (
	"net"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// Config holds connection and pool settings for the MySQL store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectRetries bounds the attempts made by Open before giving up.
	ConnectRetries uint64
	// LogLevel is the gorm logger level: silent, error, warn or info.
	LogLevel string
}

// DSN renders the driver connection string. Found rows are reported instead of
// changed rows so that an update which leaves a row unchanged still counts as a hit.
func (c Config) DSN() string {
	dc := mysqldriver.NewConfig()
	dc.User = c.User
	dc.Passwd = c.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dc.DBName = c.DBName
	dc.ParseTime = true
	dc.ClientFoundRows = true
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc.FormatDSN()
}
