package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем.
// Хранит долговечное состояние сессий (индекс текущего вопроса)
// и кешированные лидерборды комнат.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	GetInt64(key string) (int64, error)
	Delete(key string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
}
