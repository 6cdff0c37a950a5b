package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN("seat", "s3cr:t", "db.local", "3306", "seating")

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "seat", cfg.User)
	assert.Equal(t, "s3cr:t", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db.local:3306", cfg.Addr)
	assert.Equal(t, "seating", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDSN_NoPassword(t *testing.T) {
	dsn := DSN("seat", "", "localhost", "3306", "seating")

	assert.Regexp(t, `^seat@tcp\(localhost:3306\)/seating\?`, dsn)
}
