package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"statues/internal/auth"
	apperrors "statues/internal/errors"
	"statues/internal/model"
	"statues/internal/repository"
)

const (
	bcryptCost        = 10
	maxUsernameLength = 50
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

// AuthService handles registration, credential checks and login sessions.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Verify(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (token string, session *auth.Session, err error)
	Logout(ctx context.Context, token string) error
	EnsureAdmin(ctx context.Context, username, password string) (user *model.User, created bool, err error)
}

type authService struct {
	userRepo repository.UserRepository
	sessions *auth.SessionManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, sessions *auth.SessionManager) AuthService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Register creates a user with role "user". The username must be unused.
func (s *authService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, username, password, model.RoleUser)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

// Verify checks a username/password pair. Unknown users and wrong passwords
// produce the same ErrInvalidCredentials.
func (s *authService) Verify(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.Invalid("username", "is required")
	}
	if password == "" {
		return nil, apperrors.Invalid("password", "is required")
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Spend the same bcrypt work as a real check.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies credentials and opens a session carrying the user's current role.
func (s *authService) Login(ctx context.Context, username, password string) (string, *auth.Session, error) {
	user, err := s.Verify(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, session, err := s.sessions.Create(ctx, user)
	if err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user logged in")
	return token, session, nil
}

// Logout destroys the session behind token. Anonymous callers are a no-op.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// EnsureAdmin makes sure an admin account with the given username exists.
// An existing user is promoted and keeps its password.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) (*model.User, bool, error) {
	username = strings.TrimSpace(username)

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		if !existing.IsAdmin() {
			if err := s.userRepo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return nil, false, storeErr("promote user", err)
			}
			existing.Role = model.RoleAdmin
		}
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, storeErr("find user", err)
	}

	if err := validateCredentials(username, password); err != nil {
		return nil, false, err
	}
	user, err := s.createUser(ctx, username, password, model.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *authService) createUser(ctx context.Context, username, password, role string) (*model.User, error) {
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, apperrors.Conflict("username already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("check username", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique index settles concurrent registrations.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("username already taken")
		}
		return nil, storeErr("create user", err)
	}
	return user, nil
}

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return apperrors.Invalid("username", "is required")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return apperrors.Invalid("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	case password == "":
		return apperrors.Invalid("password", "is required")
	case len(password) > maxPasswordBytes:
		return apperrors.Invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("statues-dummy-password"), bcryptCost)
	})
	return dummy
}
