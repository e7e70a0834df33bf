package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	intdb "ferryhub/internal/db"
	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
)

const snapshotTable = "ferry_trip_snapshots"

const snapshotDDL = `CREATE TABLE ferry_trip_snapshots (
	provider     VARCHAR(32)  NOT NULL,
	trip_id      VARCHAR(128) NOT NULL,
	travel_date  DATE         NOT NULL,
	origin       VARCHAR(64)  NOT NULL,
	destination  VARCHAR(64)  NOT NULL,
	payload      LONGTEXT     NOT NULL,
	searched_at  DATETIME     NOT NULL,
	PRIMARY KEY (provider, trip_id, travel_date),
	KEY idx_snapshot_searched (searched_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// SnapshotRepository keeps the normalized trip of every search result so a
// booking can recover provider identifiers after the cache expired.
type SnapshotRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r SnapshotRepository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if r.DB == nil {
		return nil
	}
	return intdb.EnsureTable(ctx, r.DB, snapshotTable, snapshotDDL)
}

// SaveTrips upserts trips in one transaction.
func (r SnapshotRepository) SaveTrips(ctx context.Context, trips []models.UnifiedFerryResult) error {
	if r.DB == nil || len(trips) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ferry_trip_snapshots (provider, trip_id, travel_date, origin, destination, payload, searched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), searched_at = VALUES(searched_at)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	at := r.now().UTC()
	for _, t := range trips {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode snapshot %s/%s: %w", t.Provider, t.TripID, err)
		}
		if _, err := stmt.ExecContext(ctx, t.Provider, t.TripID, t.Schedule.Date,
			t.Route.Origin.Code, t.Route.Destination.Code, string(payload), at); err != nil {
			return fmt.Errorf("save snapshot %s/%s: %w", t.Provider, t.TripID, err)
		}
	}
	return tx.Commit()
}

// FindTrip loads the latest snapshot of a trip on a travel date.
func (r SnapshotRepository) FindTrip(ctx context.Context, provider, tripID, travelDate string) (models.UnifiedFerryResult, error) {
	if r.DB == nil {
		return models.UnifiedFerryResult{}, domain.NotFoundError{Resource: "trip snapshot"}
	}
	var payload string
	err := r.DB.QueryRowContext(ctx, `
		SELECT payload
		FROM ferry_trip_snapshots
		WHERE provider = ? AND trip_id = ? AND travel_date = ?
		LIMIT 1
	`, provider, tripID, travelDate).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UnifiedFerryResult{}, domain.NotFoundError{Resource: fmt.Sprintf("%s trip %s on %s", provider, tripID, travelDate)}
	}
	if err != nil {
		return models.UnifiedFerryResult{}, err
	}
	var trip models.UnifiedFerryResult
	if err := json.Unmarshal([]byte(payload), &trip); err != nil {
		return models.UnifiedFerryResult{}, fmt.Errorf("decode snapshot %s/%s: %w", provider, tripID, err)
	}
	return trip, nil
}

// PurgeBefore drops snapshots of sailings before date.
func (r SnapshotRepository) PurgeBefore(ctx context.Context, date string) (int64, error) {
	if r.DB == nil {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM ferry_trip_snapshots WHERE travel_date < ?`, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
