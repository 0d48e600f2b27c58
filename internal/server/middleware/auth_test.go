package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

type fakeVerifier struct {
	userID string
	err    error
}

func (f fakeVerifier) Verify(string) (string, error) {
	return f.userID, f.err
}

type fakeLoader struct {
	users map[string]*models.User
}

func (f fakeLoader) FindUserByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	return user, nil
}

func newTestEngine(tokens TokenVerifier, users UserLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	protected := r.Group("", Authenticate(tokens, users, nil))
	protected.GET("/me", func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	protected.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func testUser(role models.Role) *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "moussa",
		Email:    "moussa@example.com",
		Role:     role,
	}
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	engine := newTestEngine(fakeVerifier{}, fakeLoader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	engine := newTestEngine(fakeVerifier{}, fakeLoader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc123")
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsInvalidToken(t *testing.T) {
	engine := newTestEngine(fakeVerifier{err: apperror.Unauthorized("invalid token")}, fakeLoader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsDeletedUser(t *testing.T) {
	engine := newTestEngine(fakeVerifier{userID: "gone"}, fakeLoader{users: map[string]*models.User{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer valid")
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateAttachesUser(t *testing.T) {
	user := testUser(models.RoleUser)
	engine := newTestEngine(
		fakeVerifier{userID: user.ID.Hex()},
		fakeLoader{users: map[string]*models.User{user.ID.Hex(): user}},
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer valid")
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moussa")
}

func TestRequireRoleBlocksRegularUser(t *testing.T) {
	user := testUser(models.RoleUser)
	engine := newTestEngine(
		fakeVerifier{userID: user.ID.Hex()},
		fakeLoader{users: map[string]*models.User{user.ID.Hex(): user}},
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer valid")
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	admin := testUser(models.RoleAdmin)
	engine := newTestEngine(
		fakeVerifier{userID: admin.ID.Hex()},
		fakeLoader{users: map[string]*models.User{admin.ID.Hex(): admin}},
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer valid")
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
