package roommanager

import "math"

// Константы формулы подсчёта очков
const (
	// BaseScore - базовое количество очков за быстрый правильный ответ
	BaseScore = 1000

	// DecayDivisor - делитель в коэффициенте затухания: при ответе
	// ровно на дедлайне остаётся 1 - 1/2.2 от базы
	DecayDivisor = 2.2

	// SpeedBonus - бонус за ответ в первые 10% отведённого времени
	SpeedBonus = 50

	// MinCorrectScore - нижняя граница очков за правильный ответ
	MinCorrectScore = 100

	// speedBonusWindow - доля лимита времени, дающая бонус за скорость
	speedBonusWindow = 0.1
)

// Score вычисляет очки за ответ на вопрос.
//
// Неправильный ответ всегда даёт 0. Правильный ответ оценивается по
// линейному затуханию от прошедшего времени: raw = round((1 - ratio/2.2) * 1000),
// где ratio = timeTakenMs / (timeLimitSec * 1000), обрезанный в [0, 1].
// Ответ строго раньше 10% лимита получает бонус +50. Итог не опускается
// ниже 100: даже ответ на последней миллисекунде оценивается заметно.
func Score(timeTakenMs int64, timeLimitSec int, isCorrect bool) int {
	if !isCorrect {
		return 0
	}

	limitMs := int64(timeLimitSec) * 1000
	if limitMs <= 0 {
		return MinCorrectScore
	}

	if timeTakenMs < 0 {
		timeTakenMs = 0
	}
	if timeTakenMs > limitMs {
		timeTakenMs = limitMs
	}

	ratio := float64(timeTakenMs) / float64(limitMs)
	score := int(math.Round((1 - ratio/DecayDivisor) * BaseScore))

	if float64(timeTakenMs) < speedBonusWindow*float64(limitMs) {
		score += SpeedBonus
	}

	if score < MinCorrectScore {
		score = MinCorrectScore
	}

	return score
}
