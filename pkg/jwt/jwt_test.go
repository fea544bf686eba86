package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/Ventas-api/pkg/jwt"
)

const (
	secret = "test-secret-key-for-unit-tests"
	issuer = "ventas-api-test"
)

var vendedor = pkgjwt.Identity{UserID: "user-1", CompanyID: "company-1", Role: pkgjwt.RoleVendedor}

func TestJWT_GenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, vendedor, issuer, time.Hour)
	require.NoError(t, err)

	id, err := pkgjwt.Parse(secret, issuer, tok)

	require.NoError(t, err)
	assert.Equal(t, vendedor, *id)
}

func TestJWT_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, vendedor, issuer, -time.Hour)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(secret, issuer, tok)
	assert.Error(t, err)
}

func TestJWT_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, vendedor, issuer, time.Hour)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", issuer, tok)
	assert.Error(t, err)
}

func TestJWT_EmisorDistinto(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, vendedor, "otro-emisor", time.Hour)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(secret, issuer, tok)
	assert.Error(t, err)

	// sin emisor configurado no se valida
	_, err = pkgjwt.Parse(secret, "", tok)
	assert.NoError(t, err)
}

func TestJWT_SinEmpresaSeRechaza(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, pkgjwt.Identity{UserID: "user-1", Role: pkgjwt.RoleAdmin}, issuer, time.Hour)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(secret, issuer, tok)
	assert.ErrorContains(t, err, "company_id")
}

func TestJWT_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", vendedor, issuer, time.Hour)
	assert.Error(t, err)
}
