package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intdb "ferryhub/internal/db"
	"ferryhub/internal/domain"

	"github.com/go-sql-driver/mysql"
)

const (
	bookingTable = "ferry_bookings"

	// mysqlDuplicateEntry is ER_DUP_ENTRY.
	mysqlDuplicateEntry = 1062
)

// ferry_bookings tables created before ticket artifacts were stored lack
// ticket_url.
const bookingTicketURLDDL = `ALTER TABLE ferry_bookings ADD COLUMN ticket_url VARCHAR(512) NULL AFTER payment_reference`

const bookingDDL = `CREATE TABLE ferry_bookings (
	id                  BIGINT       NOT NULL AUTO_INCREMENT,
	booking_reference   CHAR(36)     NOT NULL,
	provider            VARCHAR(32)  NOT NULL,
	pnr                 VARCHAR(64)  NOT NULL,
	provider_booking_id VARCHAR(64)  NULL,
	trip_id             VARCHAR(128) NOT NULL,
	class_id            VARCHAR(64)  NOT NULL,
	travel_date         DATE         NOT NULL,
	origin              VARCHAR(64)  NOT NULL,
	destination         VARCHAR(64)  NOT NULL,
	ticketed_count      INT          NOT NULL,
	infant_count        INT          NOT NULL,
	total_amount        DECIMAL(12,2) NOT NULL,
	currency            CHAR(3)      NOT NULL,
	payment_reference   VARCHAR(100) NOT NULL,
	ticket_url          VARCHAR(512) NULL,
	created_at          DATETIME     NOT NULL,
	PRIMARY KEY (id),
	UNIQUE KEY uq_booking_reference (booking_reference),
	KEY idx_booking_pnr (provider, pnr)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

type BookingRecord struct {
	BookingReference  string    `json:"booking_reference"`
	Provider          string    `json:"provider"`
	PNR               string    `json:"pnr"`
	ProviderBookingID string    `json:"provider_booking_id"`
	TripID            string    `json:"trip_id"`
	ClassID           string    `json:"class_id"`
	TravelDate        string    `json:"travel_date"`
	Origin            string    `json:"origin"`
	Destination       string    `json:"destination"`
	TicketedCount     int       `json:"ticketed_count"`
	InfantCount       int       `json:"infant_count"`
	TotalAmount       float64   `json:"total_amount"`
	Currency          string    `json:"currency"`
	PaymentReference  string    `json:"payment_reference"`
	TicketURL         string    `json:"ticket_url"`
	CreatedAt         time.Time `json:"created_at"`
}

// BookingRecordRepository stores confirmed ferry bookings. Contact details
// are never persisted here.
type BookingRecordRepository struct {
	DB *sql.DB
}

func (r BookingRecordRepository) EnsureSchema(ctx context.Context) error {
	if r.DB == nil {
		return nil
	}
	if err := intdb.EnsureTable(ctx, r.DB, bookingTable, bookingDDL); err != nil {
		return err
	}
	return intdb.EnsureColumn(ctx, r.DB, bookingTable, "ticket_url", bookingTicketURLDDL)
}

func (r BookingRecordRepository) Record(ctx context.Context, b BookingRecord) error {
	if r.DB == nil {
		return nil
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO ferry_bookings (
			booking_reference, provider, pnr, provider_booking_id, trip_id, class_id,
			travel_date, origin, destination, ticketed_count, infant_count,
			total_amount, currency, payment_reference, ticket_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.BookingReference, b.Provider, b.PNR, intdb.NullIfEmpty(b.ProviderBookingID), b.TripID, b.ClassID,
		b.TravelDate, b.Origin, b.Destination, b.TicketedCount, b.InfantCount,
		b.TotalAmount, b.Currency, b.PaymentReference, intdb.NullIfEmpty(b.TicketURL), b.CreatedAt.UTC(),
	)
	var merr *mysql.MySQLError
	if errors.As(err, &merr) && merr.Number == mysqlDuplicateEntry {
		return domain.ConflictError{Resource: "booking", Msg: b.BookingReference + " already recorded", Err: err}
	}
	return err
}

func (r BookingRecordRepository) FindByReference(ctx context.Context, ref string) (BookingRecord, error) {
	if r.DB == nil {
		return BookingRecord{}, domain.NotFoundError{Resource: "booking " + ref}
	}
	var b BookingRecord
	err := r.DB.QueryRowContext(ctx, `
		SELECT booking_reference, provider, pnr, COALESCE(provider_booking_id,''), trip_id, class_id,
		       DATE_FORMAT(travel_date, '%Y-%m-%d'), origin, destination, ticketed_count, infant_count,
		       total_amount, currency, payment_reference, COALESCE(ticket_url,''), created_at
		FROM ferry_bookings
		WHERE booking_reference = ?
		LIMIT 1
	`, ref).Scan(
		&b.BookingReference, &b.Provider, &b.PNR, &b.ProviderBookingID, &b.TripID, &b.ClassID,
		&b.TravelDate, &b.Origin, &b.Destination, &b.TicketedCount, &b.InfantCount,
		&b.TotalAmount, &b.Currency, &b.PaymentReference, &b.TicketURL, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return BookingRecord{}, domain.NotFoundError{Resource: "booking " + ref}
	}
	return b, err
}
