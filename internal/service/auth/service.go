// Package auth implements registration, login, and profile updates on top
// of the stateless token service.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

// UserStore is the user persistence the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id primitive.ObjectID, username, email string) (*models.User, error)
}

// TokenIssuer mints signed session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	IssueRefresh(userID string) (string, error)
}

// SignupNotifier records an admin-facing notification for a new account.
// Delivery failures must not fail the registration.
type SignupNotifier interface {
	NotifySignup(ctx context.Context, username string, when time.Time)
}

// Service implements the auth operations.
type Service struct {
	users    UserStore
	tokens   TokenIssuer
	notifier SignupNotifier
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService wires the auth service. notifier may be nil.
func NewService(users UserStore, tokens TokenIssuer, notifier SignupNotifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
	}
}

// Session is the payload returned by Register and Login.
type Session struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

func (s *Service) validateCredentials(username, email, password string) error {
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		fields["email"] = "a valid email is required"
	}
	if len(password) < 6 {
		fields["password"] = "password must be at least 6 characters"
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid registration payload", fields)
	}
	return nil
}

// Register creates an account, hashes the password, and opens a session.
// A duplicate email fails with Conflict. Only an explicit "admin" request
// yields the admin role.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (*Session, error) {
	if err := s.validateCredentials(username, email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.ParseRole(role),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifySignup(ctx, user.Username, user.RegistrationDate)
	}

	s.logger.Info("user registered", zap.String("username", username), zap.String("role", string(user.Role)))
	return s.openSession(user)
}

// Login verifies the password hash and opens a session. Unknown email and
// wrong password both fail with the same Unauthorized response.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	return s.openSession(user)
}

// UpdateProfile changes the caller's username and/or email. Empty fields
// are left untouched.
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, username, email string) (*models.PublicUser, error) {
	if email != "" {
		if err := s.validate.Var(email, "email"); err != nil {
			return nil, apperror.Validation("invalid profile payload", map[string]string{"email": "a valid email is required"})
		}
	}

	updated, err := s.users.UpdateUserProfile(ctx, user.ID, username, email)
	if err != nil {
		return nil, err
	}

	view := updated.Public()
	return &view, nil
}

func (s *Service) openSession(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.tokens.IssueRefresh(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &Session{Token: token, RefreshToken: refresh, User: user.Public()}, nil
}
