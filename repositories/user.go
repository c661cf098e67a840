//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"devconnect/domain"
	apperrors "devconnect/errors"
)

type IUserRepository interface {
	CreateUser(email, name, hashedPassword string) (string, error)
	GetUserByEmail(email string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Users are stored twice: "user:{email}" for login and "userid:{id}" for
// sender-metadata resolution on messages.
func emailKey(email string) []byte { return []byte("user:" + email) }
func userIDKey(id string) []byte   { return []byte("userid:" + id) }

// CreateUser persists a user with an already-hashed password and returns the
// generated user id. Registering an already-taken email fails.
func (u *UserRepository) CreateUser(email, name, hashedPassword string) (string, error) {
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return apperrors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey(email), data); err != nil {
			return err
		}
		return txn.Set(userIDKey(user.ID), data)
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (u *UserRepository) GetUserByEmail(email string) (domain.User, error) {
	return u.get(emailKey(email))
}

func (u *UserRepository) GetUserByID(id string) (domain.User, error) {
	return u.get(userIDKey(id))
}

func (u *UserRepository) get(key []byte) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &user)
		})
	})
	if err != nil {
		return domain.User{}, mapBadgerErr(err)
	}
	return user, nil
}
