// Package schedule genera los instantes de publicación para lotes de videos.
// Cada item del lote recibe un slot futuro distribuido en días consecutivos,
// ciclando sobre las horas diarias configuradas.
package schedule

import (
	"fmt"
	"time"

	"github.com/elsanchez/smart-publish/internal/domain"
)

// DefaultDailyTimes son las horas de publicación por defecto
var DefaultDailyTimes = []int{6, 11, 14, 16, 22}

// Generate calcula un instante de publicación por item. El item i se publica
// el día i/itemsPerDay contando desde mañana (más startDays de desfase), a la
// hora dailyTimes[i%itemsPerDay]. Con dailyTimes vacío se usan las horas por
// defecto.
func Generate(now time.Time, totalItems, itemsPerDay int, dailyTimes []int, startDays int) ([]time.Time, error) {
	if len(dailyTimes) == 0 {
		dailyTimes = DefaultDailyTimes
	}

	if totalItems <= 0 {
		return nil, fmt.Errorf("%w: total items must be positive, got %d", domain.ErrInvalidScheduleConfig, totalItems)
	}
	if itemsPerDay < 1 || itemsPerDay > len(dailyTimes) {
		return nil, fmt.Errorf("%w: items per day must be between 1 and %d, got %d",
			domain.ErrInvalidScheduleConfig, len(dailyTimes), itemsPerDay)
	}
	if startDays < 0 {
		return nil, fmt.Errorf("%w: start offset must not be negative, got %d", domain.ErrInvalidScheduleConfig, startDays)
	}
	for _, hour := range dailyTimes {
		if hour < 0 || hour > 23 {
			return nil, fmt.Errorf("%w: hour out of range: %d", domain.ErrInvalidScheduleConfig, hour)
		}
	}

	slots := make([]time.Time, 0, totalItems)
	for i := 0; i < totalItems; i++ {
		day := i/itemsPerDay + startDays + 1
		hour := dailyTimes[i%itemsPerDay]

		base := now.AddDate(0, 0, day)
		slot := time.Date(base.Year(), base.Month(), base.Day(), hour, 0, 0, 0, now.Location())
		slots = append(slots, slot)
	}

	return slots, nil
}
