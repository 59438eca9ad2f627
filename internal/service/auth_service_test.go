package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	"github.com/yourusername/intelliq-api/pkg/auth"
)

func newAuthFixture(t *testing.T) (*AuthService, *MockUserRepo, *auth.JWTService) {
	t.Helper()
	userRepo := new(MockUserRepo)
	jwtService, err := auth.NewJWTService("test-secret-key", 24, 60)
	require.NoError(t, err)
	return NewAuthService(userRepo, jwtService), userRepo, jwtService
}

func hashedPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, userRepo, _ := newAuthFixture(t)

	userRepo.On("GetByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)
	userRepo.On("GetByUsername", "newuser").Return(nil, apperrors.ErrNotFound)
	userRepo.On("Create", mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.User).ID = 1
	}).Return(nil)

	user, err := svc.Register(context.Background(), "newuser", "new@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, "en", user.Language)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	svc, userRepo, _ := newAuthFixture(t)

	userRepo.On("GetByEmail", "taken@example.com").Return(&entity.User{ID: 1}, nil)

	_, err := svc.Register(context.Background(), "newuser", "taken@example.com", "password123", "ru")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	svc, userRepo, _ := newAuthFixture(t)

	userRepo.On("GetByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)
	userRepo.On("GetByUsername", "taken").Return(&entity.User{ID: 2}, nil)

	_, err := svc.Register(context.Background(), "taken", "new@example.com", "password123", "ru")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, userRepo, jwtService := newAuthFixture(t)

	userRepo.On("GetByEmail", "user@example.com").Return(&entity.User{
		ID:       5,
		Email:    "user@example.com",
		Password: hashedPassword(t, "password123"),
	}, nil)

	user, token, err := svc.Login(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)

	claims, err := jwtService.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, userRepo, _ := newAuthFixture(t)

	userRepo.On("GetByEmail", "user@example.com").Return(&entity.User{
		ID:       5,
		Email:    "user@example.com",
		Password: hashedPassword(t, "password123"),
	}, nil)

	_, _, err := svc.Login(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Login_UnknownEmailSameError(t *testing.T) {
	svc, userRepo, _ := newAuthFixture(t)

	userRepo.On("GetByEmail", "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "password123")
	// ответ не должен отличаться от ответа при неверном пароле
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAuthService_UpdateProfile_Success(t *testing.T) {
	svc, userRepo, _ := newAuthFixture(t)

	userRepo.On("GetByID", uint(5)).Return(&entity.User{
		ID:       5,
		Username: "olduser",
		Language: "en",
	}, nil)
	userRepo.On("GetByUsername", "newuser").Return(nil, apperrors.ErrNotFound)
	userRepo.On("Update", mock.AnythingOfType("*entity.User")).Return(nil)

	newName := "newuser"
	newLang := "ru"
	user, err := svc.UpdateProfile(context.Background(), 5, UpdateProfileInput{
		Username: &newName,
		Language: &newLang,
	})
	require.NoError(t, err)
	assert.Equal(t, "newuser", user.Username)
	assert.Equal(t, "ru", user.Language)
}

func TestAuthService_UpdateProfile_UsernameTaken(t *testing.T) {
	svc, userRepo, _ := newAuthFixture(t)

	userRepo.On("GetByID", uint(5)).Return(&entity.User{ID: 5, Username: "olduser"}, nil)
	userRepo.On("GetByUsername", "taken").Return(&entity.User{ID: 9}, nil)

	taken := "taken"
	_, err := svc.UpdateProfile(context.Background(), 5, UpdateProfileInput{Username: &taken})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	userRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestAuthService_GenerateWSTicket_RoundTrip(t *testing.T) {
	svc, _, jwtService := newAuthFixture(t)

	ticket, err := svc.GenerateWSTicket(context.Background(), 5, "user@example.com")
	require.NoError(t, err)

	claims, err := jwtService.ParseWSTicket(ticket)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)

	// тикет не принимается как обычный токен доступа
	_, err = jwtService.ParseToken(ticket)
	assert.Error(t, err)
}
