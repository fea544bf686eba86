package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/pkg/config"
)

func TestPoolConfigFor(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db", Port: 5432, User: "ventas", Password: "p@ss:w/rd", DBName: "ventas", SSLMode: "disable",
		MaxConns: 10, MinConns: 3, StatementTimeout: 2 * time.Second,
	}

	pc, err := poolConfigFor(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "p@ss:w/rd", pc.ConnConfig.Password)
	assert.EqualValues(t, 10, pc.MaxConns)
	assert.EqualValues(t, 3, pc.MinConns)
	assert.Equal(t, "2000", pc.ConnConfig.RuntimeParams["statement_timeout"])
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect)
}

func TestPoolConfigFor_DatabaseURLManda(t *testing.T) {
	pc, err := poolConfigFor(config.DBConfig{
		DatabaseURL: "postgres://u:p@pg.example.com:6543/app?sslmode=disable&application_name=worker",
		Host:        "ignorado",
		MinConns:    50,
	})
	require.NoError(t, err)

	assert.Equal(t, "pg.example.com", pc.ConnConfig.Host)
	assert.EqualValues(t, 6543, pc.ConnConfig.Port)
	assert.Equal(t, "worker", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Empty(t, pc.ConnConfig.RuntimeParams["statement_timeout"])
	assert.Zero(t, pc.MinConns)
}

func TestPoolConfigFor_DSNInvalido(t *testing.T) {
	_, err := poolConfigFor(config.DBConfig{DatabaseURL: "postgres://u:p@host:notaport/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse DSN")
}
