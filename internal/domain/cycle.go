package domain

// Дефолтные пороги recency-состояний, когда выборка повторных клиентов
// слишком мала для статистики.
const (
	DefaultRiskThresholdDays    = 45
	DefaultDormantThresholdDays = 90

	// MinCycleSampleSize — минимум повторных клиентов для data-driven порогов.
	MinCycleSampleSize = 5
)

// CycleStats — статистика типичного интервала между покупками повторных
// клиентов. Считается один раз за прогон и отдельно не персистится.
type CycleStats struct {
	// MedianCycleDays/MeanCycleDays — медиана и среднее цикла в днях.
	// Нулевые при fallback.
	MedianCycleDays float64
	MeanCycleDays   float64
	// RiskThresholdDays — клиент без покупок дольше этого числа дней "в риске".
	RiskThresholdDays int
	// DormantThresholdDays — дольше этого — "спящий".
	DormantThresholdDays int
	// SampleSize — сколько повторных клиентов попало в выборку.
	SampleSize int
	// Fallback выставлен, когда выборка меньше MinCycleSampleSize и пороги
	// взяты дефолтные.
	Fallback bool
}

// FallbackCycleStats возвращает фиксированные пороги для малой выборки.
func FallbackCycleStats(sampleSize int) CycleStats {
	return CycleStats{
		RiskThresholdDays:    DefaultRiskThresholdDays,
		DormantThresholdDays: DefaultDormantThresholdDays,
		SampleSize:           sampleSize,
		Fallback:             true,
	}
}
