package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/intelliq-api/internal/config"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
)

// LeaderboardService строит таблицу лидеров комнаты
type LeaderboardService struct {
	submissionRepo repository.SubmissionRepository
	roomRepo       repository.RoomRepository
	cacheRepo      repository.CacheRepository
	cacheTTL       time.Duration
}

// NewLeaderboardService создает новый сервис лидерборда
func NewLeaderboardService(
	submissionRepo repository.SubmissionRepository,
	roomRepo repository.RoomRepository,
	cacheRepo repository.CacheRepository,
	roomConfig config.RoomConfig,
) *LeaderboardService {
	return &LeaderboardService{
		submissionRepo: submissionRepo,
		roomRepo:       roomRepo,
		cacheRepo:      cacheRepo,
		cacheTTL:       time.Duration(roomConfig.LeaderboardCacheTTLSec) * time.Second,
	}
}

func leaderboardCacheKey(roomID uint) string {
	return fmt.Sprintf("room:%d:leaderboard", roomID)
}

// GetLeaderboard возвращает отсортированную таблицу лидеров комнаты.
// Результат кешируется на короткий срок: во время активной сессии
// лидерборд запрашивается всеми участниками одновременно. Кеш
// сбрасывается агрегатором при каждом принятом ответе, поэтому TTL
// здесь лишь страховка.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, roomID uint) ([]repository.LeaderboardEntry, error) {
	var cached []repository.LeaderboardEntry
	if err := s.cacheRepo.GetJSON(leaderboardCacheKey(roomID), &cached); err == nil {
		return cached, nil
	}

	if _, err := s.roomRepo.GetByID(roomID); err != nil {
		return nil, err
	}

	entries, err := s.submissionRepo.GetLeaderboard(roomID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SetJSON(leaderboardCacheKey(roomID), entries, s.cacheTTL); err != nil {
		log.Printf("[LeaderboardService] Ошибка кеширования лидерборда комнаты %d: %v", roomID, err)
	}

	return entries, nil
}

// ExportLeaderboardXLSX выгружает лидерборд комнаты в Excel-файл
func (s *LeaderboardService) ExportLeaderboardXLSX(ctx context.Context, roomID uint) (*bytes.Buffer, string, error) {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, "", err
	}

	entries, err := s.submissionRepo.GetLeaderboard(roomID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Leaderboard"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Место", "Игрок", "Очки", "Правильных ответов"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, entry := range entries {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), entry.UserName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.Score)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), entry.CorrectAnswersCount)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("ошибка формирования xlsx: %w", err)
	}

	filename := fmt.Sprintf("leaderboard_%s.xlsx", room.Code)
	return buf, filename, nil
}
