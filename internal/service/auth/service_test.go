package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*models.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return apperror.Conflict("email already registered")
	}
	user.ID = primitive.NewObjectID()
	user.RegistrationDate = time.Now()
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeUserStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range f.byEmail {
		if user.ID.Hex() == id {
			return user, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (f *fakeUserStore) UpdateUserProfile(_ context.Context, id primitive.ObjectID, username, email string) (*models.User, error) {
	for key, user := range f.byEmail {
		if user.ID != id {
			continue
		}
		if username != "" {
			user.Username = username
		}
		if email != "" {
			delete(f.byEmail, key)
			user.Email = email
			f.byEmail[email] = user
		}
		return user, nil
	}
	return nil, apperror.NotFound("user not found")
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID string) (string, error)        { return "access-" + userID, nil }
func (fakeTokens) IssueRefresh(userID string) (string, error) { return "refresh-" + userID, nil }

type fakeSignupNotifier struct {
	usernames []string
}

func (f *fakeSignupNotifier) NotifySignup(_ context.Context, username string, _ time.Time) {
	f.usernames = append(f.usernames, username)
}

func TestRegister(t *testing.T) {
	store := newFakeUserStore()
	notifier := &fakeSignupNotifier{}
	svc := NewService(store, fakeTokens{}, notifier, nil)

	session, err := svc.Register(context.Background(), "moussa", "moussa@example.com", "secret123", "")
	require.NoError(t, err)

	assert.Equal(t, "moussa", session.User.Username)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, []string{"moussa"}, notifier.usernames)

	// The stored hash is not the raw password.
	stored := store.byEmail["moussa@example.com"]
	assert.NotEqual(t, "secret123", stored.PasswordHash)
}

func TestRegisterAdminRole(t *testing.T) {
	svc := NewService(newFakeUserStore(), fakeTokens{}, nil, nil)

	session, err := svc.Register(context.Background(), "admin", "admin@example.com", "secret123", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.User.Role)
}

func TestRegisterUnknownRoleFallsBackToUser(t *testing.T) {
	svc := NewService(newFakeUserStore(), fakeTokens{}, nil, nil)

	session, err := svc.Register(context.Background(), "someone", "someone@example.com", "secret123", "superuser")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, session.User.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeUserStore(), fakeTokens{}, nil, nil)

	tests := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{name: "missing username", email: "a@b.com", password: "secret123", field: "username"},
		{name: "bad email", username: "moussa", email: "not-an-email", password: "secret123", field: "email"},
		{name: "short password", username: "moussa", email: "a@b.com", password: "12345", field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password, "")
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Contains(t, apperror.FieldsOf(err), tt.field)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeUserStore(), fakeTokens{}, nil, nil)

	_, err := svc.Register(context.Background(), "moussa", "moussa@example.com", "secret123", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "other", "moussa@example.com", "secret123", "")
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store, fakeTokens{}, nil, nil)

	_, err := svc.Register(context.Background(), "moussa", "moussa@example.com", "secret123", "")
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), "moussa@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "moussa", session.User.Username)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store, fakeTokens{}, nil, nil)

	_, err := svc.Register(context.Background(), "moussa", "moussa@example.com", "secret123", "")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), "moussa@example.com", "wrong")
	_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "secret123")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(wrongPassword))
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(unknownEmail))
	// Same message either way, so callers cannot probe which emails exist.
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestUpdateProfile(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store, fakeTokens{}, nil, nil)

	_, err := svc.Register(context.Background(), "moussa", "moussa@example.com", "secret123", "")
	require.NoError(t, err)

	user := store.byEmail["moussa@example.com"]

	updated, err := svc.UpdateProfile(context.Background(), user, "moussa2", "")
	require.NoError(t, err)
	assert.Equal(t, "moussa2", updated.Username)
	assert.Equal(t, "moussa@example.com", updated.Email)

	_, err = svc.UpdateProfile(context.Background(), user, "", "not-an-email")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
