package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type authUserRepoStub struct {
	users map[string]*models.User
}

func (s authUserRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func editorUserFixture(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "editor@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleEditor,
	}
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	user := editorUserFixture(t, "s3cret-pass")
	svc := NewAuthService(authUserRepoStub{users: map[string]*models.User{user.ID: user}}, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
	})

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "editor@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "user-1", resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleEditor, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	user := editorUserFixture(t, "s3cret-pass")
	svc := NewAuthService(authUserRepoStub{users: map[string]*models.User{user.ID: user}}, nil, nil, AuthConfig{Secret: "test-secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "editor@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(authUserRepoStub{}, nil, nil, AuthConfig{Secret: "test-secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsWrongSecret(t *testing.T) {
	user := editorUserFixture(t, "s3cret-pass")
	issuer := NewAuthService(authUserRepoStub{users: map[string]*models.User{user.ID: user}}, nil, nil, AuthConfig{Secret: "secret-a"})
	verifier := NewAuthService(authUserRepoStub{}, nil, nil, AuthConfig{Secret: "secret-b"})

	resp, err := issuer.Login(context.Background(), models.LoginRequest{
		Email:    "editor@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(authUserRepoStub{}, nil, nil, AuthConfig{Secret: "test-secret"})

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceMe(t *testing.T) {
	user := editorUserFixture(t, "s3cret-pass")
	svc := NewAuthService(authUserRepoStub{users: map[string]*models.User{user.ID: user}}, nil, nil, AuthConfig{Secret: "test-secret"})

	found, err := svc.Me(context.Background(), &models.JWTClaims{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "editor@example.com", found.Email)

	_, err = svc.Me(context.Background(), &models.JWTClaims{UserID: "gone"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.Me(context.Background(), nil)
	require.Error(t, err)
}
