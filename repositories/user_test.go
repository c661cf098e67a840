package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "devconnect/errors"
)

func TestUserRepository_Create_And_Lookup(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(testDB(t))

	// When a user registers
	id, err := repo.CreateUser("alice@example.com", "Alice", "hashed-secret")
	req.NoError(err)
	req.NotEmpty(id)

	// Then both lookup keys resolve the same user
	byEmail, err := repo.GetUserByEmail("alice@example.com")
	req.NoError(err)
	byID, err := repo.GetUserByID(id)
	req.NoError(err)
	req.Equal(byEmail.ID, byID.ID)
	req.Equal("Alice", byID.Name)
	req.Equal("hashed-secret", byID.PasswordHash)
}

func TestUserRepository_Duplicate_Email_Is_Rejected(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(testDB(t))

	_, err := repo.CreateUser("alice@example.com", "Alice", "hashed-secret")
	req.NoError(err)

	_, err = repo.CreateUser("alice@example.com", "Impostor", "other-secret")

	req.ErrorIs(err, apperrors.ErrUserAlreadyExists)
}

func TestUserRepository_Unknown_User(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(testDB(t))

	_, err := repo.GetUserByEmail("nobody@example.com")
	req.ErrorIs(err, apperrors.ErrNotFound)

	_, err = repo.GetUserByID("missing")
	req.ErrorIs(err, apperrors.ErrNotFound)
}
