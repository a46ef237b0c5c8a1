package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{
		Email:            "officer@example.com",
		Role:             "loan_officer",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "loan_officer", claims.Role)
	assert.Equal(t, "officer@example.com", claims.Email)
}

func TestVerifyJWTRejectsExpiredAndTampered(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	expired, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	require.NoError(t, err)
	_, err = VerifyJWT(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	valid, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	require.NoError(t, err)
	t.Setenv("JWT_SECRET", "other-secret")
	_, err = VerifyJWT(valid)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyJWTRejectsForeignIssuerAndDefaultsRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = VerifyJWT(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2"}})
	require.NoError(t, err)
	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, RoleBorrower, claims.Role)
	assert.Equal(t, "loanmvp", claims.Issuer)
}

func TestSignJWTRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse battery"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
	assert.False(t, VerifyPassword("", "anything"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("borrower@example.com"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("Name <borrower@example.com>"))
}

func TestNormalizeRole(t *testing.T) {
	role, ok := NormalizeRole(" Loan_Officer ")
	assert.True(t, ok)
	assert.Equal(t, RoleLoanOfficer, role)

	_, ok = NormalizeRole("wizard")
	assert.False(t, ok)

	assert.True(t, IsStaff(RoleUnderwriter))
	assert.False(t, IsStaff(RoleBorrower))
	assert.False(t, IsStaff(""))
}

func TestPrincipalAccess(t *testing.T) {
	owner := Principal{UserID: "u-1", Role: RoleBorrower}
	assert.True(t, owner.CanAccess("u-1"))
	assert.False(t, owner.CanAccess("u-2"))
	assert.False(t, Principal{}.CanAccess(""))

	officer := Principal{UserID: "lo-1", Role: RoleLoanOfficer}
	assert.True(t, officer.IsStaff())
	assert.True(t, officer.CanAccess("u-2"))

	// A guest header never grants staff access, whatever role is attached.
	spoofed := Principal{UserID: "guest:x", Role: RoleAdmin, Guest: true}
	assert.False(t, spoofed.IsStaff())
	assert.False(t, spoofed.CanAccess("u-1"))
}
