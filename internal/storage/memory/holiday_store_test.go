package memory

import (
	"context"
	"errors"
	"testing"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

func TestHolidayStore_InsertBulkAndGetAll(t *testing.T) {
	store := NewHolidayStore()
	ctx := context.Background()

	holidays := []*domain.Holiday{
		{Date: "2024-12-25", Name: "Christmas Day"},
		{Date: "2024-01-01", Name: "New Year's Day"},
	}
	if err := store.InsertBulk(ctx, holidays); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(result) != 2 || result[0].Date != "2024-01-01" {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestHolidayStore_Duplicate(t *testing.T) {
	store := NewHolidayStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.Holiday{
		{Date: "2024-12-25", Name: "Christmas Day"},
		{Date: "2024-12-25", Name: "Christmas Day"},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	result, _ := store.GetAll(ctx)
	if len(result) != 0 {
		t.Errorf("Expected 0 holidays (rollback), got %d", len(result))
	}

	if err := store.InsertBulk(ctx, []*domain.Holiday{{Name: "no date"}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
