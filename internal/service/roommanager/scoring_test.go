package roommanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_IncorrectAlwaysZero(t *testing.T) {
	assert.Equal(t, 0, Score(0, 30, false))
	assert.Equal(t, 0, Score(15000, 30, false))
	assert.Equal(t, 0, Score(30000, 30, false))
}

func TestScore_InstantAnswerGetsBonus(t *testing.T) {
	// 1000 базовых + 50 бонуса за скорость
	assert.Equal(t, 1050, Score(0, 30, true))
}

func TestScore_DeadlineAnswer(t *testing.T) {
	// ratio = 1: round((1 - 1/2.2) * 1000) = 545
	assert.Equal(t, 545, Score(30000, 30, true))
}

func TestScore_BonusWindowBoundary(t *testing.T) {
	// Граница строгая: ровно 10% лимита бонуса уже не дает
	assert.Equal(t, 1005, Score(1999, 20, true))

	// 2000ms из 20s: ratio = 0.1, round((1 - 0.1/2.2)*1000) = 955, без бонуса
	assert.Equal(t, 955, Score(2000, 20, true))
}

func TestScore_MidwayAnswer(t *testing.T) {
	// ratio = 0.5: round((1 - 0.5/2.2)*1000) = 773
	assert.Equal(t, 773, Score(15000, 30, true))
}

func TestScore_TimeTakenClampedToLimit(t *testing.T) {
	// Превышение лимита оценивается как ответ на дедлайне
	assert.Equal(t, Score(30000, 30, true), Score(45000, 30, true))
}

func TestScore_NegativeTimeTreatedAsZero(t *testing.T) {
	assert.Equal(t, Score(0, 30, true), Score(-100, 30, true))
}

func TestScore_FloorForCorrectAnswer(t *testing.T) {
	// Правильный ответ никогда не оценивается ниже 100
	for _, limitSec := range []int{5, 30, 120} {
		score := Score(int64(limitSec)*1000, limitSec, true)
		assert.GreaterOrEqual(t, score, MinCorrectScore)
	}
}

func TestScore_ZeroLimitFallsBackToFloor(t *testing.T) {
	assert.Equal(t, MinCorrectScore, Score(1000, 0, true))
}

func TestScore_MonotonicDecay(t *testing.T) {
	// Чем дольше думал, тем меньше очков
	prev := Score(0, 30, true)
	for ms := int64(3000); ms <= 30000; ms += 3000 {
		current := Score(ms, 30, true)
		assert.Less(t, current, prev, "очки должны убывать с ростом времени (ms=%d)", ms)
		prev = current
	}
}
