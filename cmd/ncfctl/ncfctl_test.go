package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/pkg/jwt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestToken_EmiteJWTValido(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "secreto-cli")
	t.Setenv("JWT_ISSUER", "ventas-api")

	out, err := run(t, "token", "--user", "u-1", "--company", "c-1", "--role", "admin", "--ttl", "10m")
	require.NoError(t, err)

	id, err := jwt.Parse("secreto-cli", "ventas-api", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "c-1", id.CompanyID)
	assert.Equal(t, jwt.RoleAdmin, id.Role)
	assert.Equal(t, 10*time.Minute, tokenTTL)
}

func TestToken_SinEmpresaFalla(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "secreto-cli")
	tokenID.CompanyID = ""

	_, err := run(t, "token", "--user", "u-1", "--company", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--company")
}

func TestSequence_ExigeEmpresa(t *testing.T) {
	chdir(t, t.TempDir())
	companyID = ""

	_, err := run(t, "sequence", "list", "--company", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--company es requerido")
}

func TestMigrate_SinBaseDeDatos(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
