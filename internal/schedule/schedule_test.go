package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/elsanchez/smart-publish/internal/domain"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2025, 3, 10, 20, 30, 0, 0, time.UTC)

	slots, err := Generate(now, 5, 2, []int{9, 18}, 0)
	if err != nil {
		t.Fatalf("Generate falló: %v", err)
	}
	if len(slots) != 5 {
		t.Fatalf("se esperaban 5 slots, obtenidos %d", len(slots))
	}

	want := []time.Time{
		time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC),
	}
	for i, slot := range slots {
		if !slot.Equal(want[i]) {
			t.Errorf("slot %d = %v, esperado %v", i, slot, want[i])
		}
	}
}

func TestGenerateSlotsAreFutureAndOrdered(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)

	slots, err := Generate(now, 12, 3, nil, 0)
	if err != nil {
		t.Fatalf("Generate falló: %v", err)
	}

	for i, slot := range slots {
		if !slot.After(now) {
			t.Errorf("slot %d (%v) no es futuro respecto a %v", i, slot, now)
		}
		if i > 0 && slot.Before(slots[i-1]) {
			t.Errorf("slot %d (%v) es anterior al slot %d (%v)", i, slot, i-1, slots[i-1])
		}
	}
}

func TestGenerateStartDaysOffset(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	slots, err := Generate(now, 1, 1, []int{10}, 3)
	if err != nil {
		t.Fatalf("Generate falló: %v", err)
	}

	want := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	if !slots[0].Equal(want) {
		t.Errorf("slot = %v, esperado %v", slots[0], want)
	}
}

func TestGenerateDefaultDailyTimes(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	slots, err := Generate(now, 5, 5, nil, 0)
	if err != nil {
		t.Fatalf("Generate falló: %v", err)
	}

	for i, hour := range DefaultDailyTimes {
		if slots[i].Hour() != hour {
			t.Errorf("slot %d hora = %d, esperada %d", i, slots[i].Hour(), hour)
		}
	}
}

func TestGenerateInvalidConfig(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		totalItems  int
		itemsPerDay int
		dailyTimes  []int
		startDays   int
	}{
		{"cero items", 0, 1, nil, 0},
		{"items por día cero", 5, 0, nil, 0},
		{"items por día mayor que horas", 5, 3, []int{9, 18}, 0},
		{"start days negativo", 5, 1, nil, -1},
		{"hora fuera de rango", 5, 1, []int{25}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(now, tt.totalItems, tt.itemsPerDay, tt.dailyTimes, tt.startDays)
			if !errors.Is(err, domain.ErrInvalidScheduleConfig) {
				t.Errorf("se esperaba ErrInvalidScheduleConfig, obtenido %v", err)
			}
		})
	}
}
