// Package auth signs users up and in against the store and remembers who is signed
// in between invocations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/logger"
	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/storage"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at sign up.
const MinPasswordLength = 6

type Service struct {
	store    storage.Store
	stateDir string

	// Cost is the bcrypt cost for new passwords.
	Cost int
}

// NewService keeps its login state file in stateDir.
func NewService(st storage.Store, stateDir string) *Service {
	return &Service{
		store:    st,
		stateDir: stateDir,
		Cost:     bcrypt.DefaultCost,
	}
}

// SignUp creates the user with default categories and settings and signs them in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q: %w", email, models.ErrInvalidRecord)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password must have at least %d characters: %w", MinPasswordLength, models.ErrInvalidRecord)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("Failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, models.NewUser{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	if err := s.remember(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn checks the password and records the user as signed in. Unknown emails and
// wrong passwords fail the same way.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	uid, hash, err := s.store.GetCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logger.Warn("sign in with unknown email", "email", models.NormalizeEmail(email))
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		logger.Warn("sign in with wrong password", "uid", uid)
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.store.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := s.remember(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) SignOut() error {
	if err := utils.ClearLoginState(s.stateDir); err != nil {
		return fmt.Errorf("Failed to clear login: %w", err)
	}
	return nil
}

// Current returns the signed in user.
func (s *Service) Current(ctx context.Context) (*models.User, error) {
	if !utils.LoginExists(s.stateDir) {
		return nil, models.ErrNotAuthenticated
	}

	state, err := utils.LoadLoginState(s.stateDir)
	if err != nil {
		return nil, fmt.Errorf("Failed to read login: %w", err)
	}

	user, err := s.store.GetUser(ctx, state.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The user is gone from this store (e.g. after switching databases).
			_ = utils.ClearLoginState(s.stateDir)
			return nil, models.ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) remember(user *models.User) error {
	err := utils.SaveLoginState(s.stateDir, &utils.LoginState{
		UserID:     user.UID,
		Email:      user.Email,
		SignedInAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("Failed to save login: %w", err)
	}
	logger.Info("signed in", "uid", user.UID)
	return nil
}
