package service

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	"github.com/yourusername/intelliq-api/pkg/auth"
)

// AuthService предоставляет методы для аутентификации и управления пользователями
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register регистрирует нового пользователя
func (s *AuthService) Register(ctx context.Context, username, email, password, language string) (*entity.User, error) {
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, fmt.Errorf("email %s уже занят: %w", email, apperrors.ErrConflict)
	}
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, fmt.Errorf("имя пользователя %s уже занято: %w", username, apperrors.ErrConflict)
	}

	if language == "" {
		language = "en"
	}

	user := &entity.User{
		Username: username,
		Email:    email,
		Password: password,
		Language: language,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь %d (%s)", user.ID, user.Username)
	return user, nil
}

// Login проверяет учетные данные и выдает JWT-токен
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// не раскрываем, существует ли email
		return nil, "", apperrors.ErrUnauthorized
	}

	if !user.CheckPassword(password) {
		return nil, "", apperrors.ErrUnauthorized
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка генерации токена: %w", err)
	}

	return user, token, nil
}

// GenerateWSTicket выдает короткоживущий тикет для WebSocket-подключения.
// Тикет передается в query-параметре, поэтому живет секунды, а не часы.
func (s *AuthService) GenerateWSTicket(ctx context.Context, userID uint, email string) (string, error) {
	return s.jwtService.GenerateWSTicket(userID, email)
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// UpdateProfileInput - изменяемые поля профиля. Nil-поле означает "не менять".
type UpdateProfileInput struct {
	Username *string
	Language *string
}

// UpdateProfile обновляет имя пользователя и/или язык интерфейса
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*entity.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil && *input.Username != user.Username {
		if _, err := s.userRepo.GetByUsername(*input.Username); err == nil {
			return nil, fmt.Errorf("имя пользователя %s уже занято: %w", *input.Username, apperrors.ErrConflict)
		}
		user.Username = *input.Username
	}
	if input.Language != nil {
		user.Language = *input.Language
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("ошибка обновления профиля: %w", err)
	}

	log.Printf("[AuthService] Обновлен профиль пользователя %d", user.ID)
	return user, nil
}
