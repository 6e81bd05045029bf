package postgres

import (
	"context"
	"fmt"
	"time"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

const dateLayout = "2006-01-02"

// HolidayStore implements storage.HolidayStore using PostgreSQL.
type HolidayStore struct {
	pool *Pool
}

// NewHolidayStore creates a new HolidayStore.
func NewHolidayStore(pool *Pool) *HolidayStore {
	return &HolidayStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HolidayStore = (*HolidayStore)(nil)

// InsertBulk adds multiple holidays atomically. Fails entire batch on any duplicate.
func (s *HolidayStore) InsertBulk(ctx context.Context, holidays []*domain.Holiday) error {
	if len(holidays) == 0 {
		return nil
	}

	dates := make([]time.Time, len(holidays))
	for i, h := range holidays {
		if h == nil {
			return storage.ErrInvalidInput
		}
		d, err := time.Parse(dateLayout, h.Date)
		if err != nil {
			return fmt.Errorf("%w: holiday date %q", storage.ErrInvalidInput, h.Date)
		}
		dates[i] = d
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO holidays (holiday_date, name) VALUES ($1, $2)`

	for i, h := range holidays {
		if _, err := tx.Exec(ctx, query, dates[i], h.Name); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert holiday in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves every holiday, ordered by date ASC.
func (s *HolidayStore) GetAll(ctx context.Context) ([]*domain.Holiday, error) {
	rows, err := s.pool.Query(ctx, `SELECT holiday_date, name FROM holidays ORDER BY holiday_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all holidays: %w", err)
	}
	defer rows.Close()

	var holidays []*domain.Holiday
	for rows.Next() {
		var (
			d    time.Time
			name string
		)
		if err := rows.Scan(&d, &name); err != nil {
			return nil, fmt.Errorf("scan holiday row: %w", err)
		}
		holidays = append(holidays, &domain.Holiday{Date: d.Format(dateLayout), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holiday rows: %w", err)
	}
	return holidays, nil
}
