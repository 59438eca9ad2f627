package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/intelliq-api/internal/config"
	"github.com/yourusername/intelliq-api/internal/domain/entity"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
)

func testRoomConfig() config.RoomConfig {
	return config.RoomConfig{
		MaxPlayersLimit:        10,
		MaxQuestions:           20,
		MinTimeLimitSec:        5,
		MaxTimeLimitSec:        120,
		LeaderboardCacheTTLSec: 10,
	}
}

func validQuizInput() CreateQuizInput {
	return CreateQuizInput{
		Title: "Столицы мира",
		Questions: []QuestionInput{
			{
				Text:          "Столица Франции?",
				Options:       []string{"a) Париж", "b) Лондон", "c) Берлин"},
				CorrectAnswer: "a) Париж",
			},
		},
	}
}

func TestQuizService_CreateQuizForRoom_Success(t *testing.T) {
	quizRepo := new(MockQuizRepo)
	questionRepo := new(MockQuestionRepo)
	roomRepo := new(MockRoomRepo)
	svc := NewQuizService(quizRepo, questionRepo, roomRepo, testRoomConfig())

	room := &entity.Room{ID: 1, HostUserID: 10, MaxPlayers: 4}
	roomRepo.On("GetByID", uint(1)).Return(room, nil)
	quizRepo.On("GetByRoomID", uint(1)).Return(nil, apperrors.ErrNotFound)
	quizRepo.On("Create", mock.AnythingOfType("*entity.Quiz")).Return(nil)
	questionRepo.On("CreateBatch", mock.AnythingOfType("[]entity.Question")).Return(nil)

	quiz, err := svc.CreateQuizForRoom(context.Background(), 1, 10, validQuizInput())
	require.NoError(t, err)
	assert.Equal(t, uint(1), quiz.RoomID)
	assert.Equal(t, 1, quiz.QuestionCount)
	quizRepo.AssertExpectations(t)
	questionRepo.AssertExpectations(t)
}

func TestQuizService_CreateQuizForRoom_NotHost(t *testing.T) {
	quizRepo := new(MockQuizRepo)
	questionRepo := new(MockQuestionRepo)
	roomRepo := new(MockRoomRepo)
	svc := NewQuizService(quizRepo, questionRepo, roomRepo, testRoomConfig())

	room := &entity.Room{ID: 1, HostUserID: 10}
	roomRepo.On("GetByID", uint(1)).Return(room, nil)

	_, err := svc.CreateQuizForRoom(context.Background(), 1, 99, validQuizInput())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestQuizService_CreateQuizForRoom_SecondQuizRejected(t *testing.T) {
	quizRepo := new(MockQuizRepo)
	questionRepo := new(MockQuestionRepo)
	roomRepo := new(MockRoomRepo)
	svc := NewQuizService(quizRepo, questionRepo, roomRepo, testRoomConfig())

	room := &entity.Room{ID: 1, HostUserID: 10}
	roomRepo.On("GetByID", uint(1)).Return(room, nil)
	quizRepo.On("GetByRoomID", uint(1)).Return(&entity.Quiz{ID: 7, RoomID: 1}, nil)

	_, err := svc.CreateQuizForRoom(context.Background(), 1, 10, validQuizInput())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestQuizService_CreateQuizForRoom_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateQuizInput)
	}{
		{
			name: "нет вопросов",
			mutate: func(in *CreateQuizInput) {
				in.Questions = nil
			},
		},
		{
			name: "один вариант ответа",
			mutate: func(in *CreateQuizInput) {
				in.Questions[0].Options = []string{"a) Париж"}
			},
		},
		{
			name: "пустой текст вопроса",
			mutate: func(in *CreateQuizInput) {
				in.Questions[0].Text = ""
			},
		},
		{
			name: "дубликат варианта",
			mutate: func(in *CreateQuizInput) {
				in.Questions[0].Options = []string{"a) Париж", "a) Париж"}
			},
		},
		{
			name: "правильный ответ не из вариантов",
			mutate: func(in *CreateQuizInput) {
				// ответ без префикса не совпадает с каноничной строкой варианта
				in.Questions[0].CorrectAnswer = "Париж"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quizRepo := new(MockQuizRepo)
			questionRepo := new(MockQuestionRepo)
			roomRepo := new(MockRoomRepo)
			svc := NewQuizService(quizRepo, questionRepo, roomRepo, testRoomConfig())

			room := &entity.Room{ID: 1, HostUserID: 10}
			roomRepo.On("GetByID", uint(1)).Return(room, nil)
			quizRepo.On("GetByRoomID", uint(1)).Return(nil, apperrors.ErrNotFound)

			input := validQuizInput()
			tt.mutate(&input)

			_, err := svc.CreateQuizForRoom(context.Background(), 1, 10, input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestQuizService_GetRoomQuestions(t *testing.T) {
	quizRepo := new(MockQuizRepo)
	questionRepo := new(MockQuestionRepo)
	roomRepo := new(MockRoomRepo)
	svc := NewQuizService(quizRepo, questionRepo, roomRepo, testRoomConfig())

	quizRepo.On("GetByRoomID", uint(1)).Return(&entity.Quiz{ID: 7, RoomID: 1, Title: "Столицы мира"}, nil)
	questionRepo.On("GetByQuizID", uint(7)).Return([]entity.Question{
		{ID: 100, QuizID: 7, Text: "Вопрос"},
	}, nil)

	quiz, questions, err := svc.GetRoomQuestions(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Столицы мира", quiz.Title)
	assert.Len(t, questions, 1)
}
