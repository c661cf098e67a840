package services

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"devconnect/auth"
	apperrors "devconnect/errors"
	"devconnect/repositories"
)

func newAuthFixture(t *testing.T) (*AuthService, *auth.TokenManager) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(repositories.NewUserRepository(db), tokens), tokens
}

func TestAuthService_Register_Then_Login(t *testing.T) {
	req := require.New(t)
	service, tokens := newAuthFixture(t)

	// When alice registers
	registered, err := service.Register("alice@example.com", "Alice", "Str0ng#Passw0rd")
	req.NoError(err)
	req.NotEmpty(registered)

	// Then the issued token identifies her
	identity, err := tokens.Identify(string(registered))
	req.NoError(err)
	req.NotEmpty(identity)

	// And she can log back in with the same password
	logged, err := service.Login("alice@example.com", "Str0ng#Passw0rd")
	req.NoError(err)
	sameIdentity, err := tokens.Identify(string(logged))
	req.NoError(err)
	req.Equal(identity, sameIdentity)
}

func TestAuthService_Register_Weak_Password(t *testing.T) {
	req := require.New(t)
	service, _ := newAuthFixture(t)

	_, err := service.Register("alice@example.com", "Alice", "short")

	req.ErrorIs(err, apperrors.ErrInvalidPassword)
}

func TestAuthService_Register_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	service, _ := newAuthFixture(t)

	_, err := service.Register("alice@example.com", "Alice", "Str0ng#Passw0rd")
	req.NoError(err)

	_, err = service.Register("alice@example.com", "Impostor", "An0ther#Secret9")

	req.ErrorIs(err, apperrors.ErrUserAlreadyExists)
}

func TestAuthService_Login_Wrong_Password(t *testing.T) {
	req := require.New(t)
	service, _ := newAuthFixture(t)
	_, err := service.Register("alice@example.com", "Alice", "Str0ng#Passw0rd")
	req.NoError(err)

	_, err = service.Login("alice@example.com", "Wr0ng#Passw0rd")

	req.ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_Login_Unknown_User_Is_Indistinguishable(t *testing.T) {
	req := require.New(t)
	service, _ := newAuthFixture(t)

	_, err := service.Login("nobody@example.com", "Str0ng#Passw0rd")

	// Same error as a wrong password so accounts cannot be enumerated.
	req.ErrorIs(err, apperrors.ErrInvalidCredentials)
}
