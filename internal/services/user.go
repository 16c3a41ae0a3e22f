package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/abrezinsky/livevote/internal/errors"
	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/repository"
)

const minPasswordLength = 8

// UserService handles signup, login and account settings
type UserService struct {
	log      logger.Logger
	repo     repository.UserRepository
	clock    Clock
	hashCost int
}

// NewUserService creates a new UserService
func NewUserService(log logger.Logger, repo repository.UserRepository, clock Clock) *UserService {
	return &UserService{log: log, repo: repo, clock: clock, hashCost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost (tests use bcrypt.MinCost)
func (s *UserService) SetHashCost(cost int) {
	s.hashCost = cost
}

// Signup registers a new account
func (s *UserService) Signup(ctx context.Context, email, name, password string) (*models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrNameRequired
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.CreateUser(ctx, email, name, hash, s.clock.Now())
	if err == repository.ErrDuplicate {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("User signed up", "user_id", id)
	return s.repo.GetUser(ctx, id)
}

// Login checks credentials and returns the account
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err == repository.ErrNotFound {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Debug("Login rejected", "user_id", user.ID)
		return nil, ErrBadCredentials
	}
	return user, nil
}

// GetUser returns an account by id
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UpdateName renames the account
func (s *UserService) UpdateName(ctx context.Context, userID int64, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := s.repo.UpdateUserName(ctx, userID, name); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return s.GetUser(ctx, userID)
}

// UpdateEmail moves the account to a new email after checking the current password
func (s *UserService) UpdateEmail(ctx context.Context, userID int64, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.checkPassword(ctx, userID, password); err != nil {
		return nil, err
	}

	err := s.repo.UpdateUserEmail(ctx, userID, email)
	if err == repository.ErrDuplicate {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	s.log.Info("Email changed", "user_id", userID)
	return s.GetUser(ctx, userID)
}

// UpdatePassword replaces the password after checking the current one
func (s *UserService) UpdatePassword(ctx context.Context, userID int64, current, next string) error {
	if _, err := s.checkPassword(ctx, userID, current); err != nil {
		return err
	}
	hash, err := s.hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return notFoundAs(err, ErrUserNotFound)
	}
	s.log.Info("Password changed", "user_id", userID)
	return nil
}

// DeleteAccount removes the account along with every event it hosts
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return notFoundAs(err, ErrUserNotFound)
	}
	s.log.Info("Account deleted", "user_id", userID)
	return nil
}

// checkPassword loads the user and compares password against the stored hash
func (s *UserService) checkPassword(ctx context.Context, userID int64, password string) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	return user, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to hash password")
	}
	return string(hash), nil
}

func checkEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return errors.Validation("a valid email is required")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// notFoundAs swaps a missing-row error for the service's own not-found error
func notFoundAs(err, notFound error) error {
	if err == repository.ErrNotFound {
		return notFound
	}
	return err
}
