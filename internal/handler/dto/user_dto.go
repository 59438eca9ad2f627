package dto

import "github.com/yourusername/intelliq-api/internal/domain/entity"

// UserResponse представляет публичные данные пользователя
type UserResponse struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Language     string `json:"language"`
	GamesPlayed  int64  `json:"games_played"`
	TotalScore   int64  `json:"total_score"`
	HighestScore int64  `json:"highest_score"`
}

// NewUserResponse собирает ответ из сущности пользователя
func NewUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Language:     user.Language,
		GamesPlayed:  user.GamesPlayed,
		TotalScore:   user.TotalScore,
		HighestScore: user.HighestScore,
	}
}

// LoginResponse представляет ответ на успешный вход
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// WSTicketResponse представляет выданный WebSocket-тикет
type WSTicketResponse struct {
	Ticket string `json:"ticket"`
}
