package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bitcampus/timetable-api/internal/models"
)

// SlotRepository provides read access to the slot master grid.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `slot_id, day_of_week, period_number, start_time, end_time, slot_type, is_active`

// List returns the full grid including inactive slots.
func (r *SlotRepository) List(ctx context.Context) ([]models.Slot, error) {
	query := fmt.Sprintf(`SELECT %s FROM slot_master ORDER BY slot_id ASC`, slotColumns)
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// ListActive returns the slots available to the generator.
func (r *SlotRepository) ListActive(ctx context.Context) ([]models.Slot, error) {
	query := fmt.Sprintf(`SELECT %s FROM slot_master WHERE is_active = TRUE ORDER BY slot_id ASC`, slotColumns)
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list active slots: %w", err)
	}
	return slots, nil
}
