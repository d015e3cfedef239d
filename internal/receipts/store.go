// Package receipts records orders placed through the storefront and queues
// an order-placed event for each in the same transaction.
package receipts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EventOrderPlaced = "order.placed"
)

type Credentials struct {
	Driver string
	// DSN is a lib/pq connection string or a SQLite file path.
	DSN               string
	MigrationsDirPath string
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func NewStore(cred *Credentials) (*Store, error) {
	switch cred.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported receipts driver %q", cred.Driver)
	}

	db, err := sql.Open(cred.Driver, cred.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cred.Driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	return &Store{db: db, driver: cred.Driver, now: time.Now}, nil
}

func (s *Store) RunMigrations(cred *Credentials) error {
	var (
		driver database.Driver
		err    error
	)
	switch s.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(s.db, &postgres.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		s.driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// RecordOrder stores the receipt and its outbox event atomically.
func (s *Store) RecordOrder(ctx context.Context, r domain.Receipt) error {
	items, err := json.Marshal(r.Items)
	if err != nil {
		return fmt.Errorf("marshal receipt items: %w", err)
	}
	payload, err := json.Marshal(domain.OrderPlacedEvent{
		OrderID:     r.OrderID,
		OrderNumber: r.OrderNumber,
		SessionID:   r.SessionID,
		Items:       r.Items,
		PlacedAt:    r.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order placed event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO receipts (session_id, order_id, order_number, payment_method, items, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		r.SessionID, r.OrderID, r.OrderNumber, string(r.PaymentMethod), string(items), r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?)`),
		strconv.FormatInt(r.OrderID, 10), EventOrderPlaced, string(payload), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit receipt: %w", err)
	}
	return nil
}

// ReceiptsForSession lists the session's receipts, newest first.
func (s *Store) ReceiptsForSession(ctx context.Context, sessionID string) ([]domain.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT session_id, order_id, order_number, payment_method, items, created_at
		FROM receipts WHERE session_id = ? ORDER BY created_at DESC, id DESC`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var out []domain.Receipt
	for rows.Next() {
		var (
			r      domain.Receipt
			method string
			items  []byte
		)
		if err := rows.Scan(&r.SessionID, &r.OrderID, &r.OrderNumber, &method, &items, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		r.PaymentMethod = domain.PaymentMethod(method)
		if err := json.Unmarshal(items, &r.Items); err != nil {
			return nil, fmt.Errorf("failed to decode receipt items: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HasOrder reports whether the session placed the given order.
func (s *Store) HasOrder(ctx context.Context, sessionID string, orderID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM receipts WHERE session_id = ? AND order_id = ?`), sessionID, orderID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query receipt: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events WHERE processed_at IS NULL ORDER BY id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var out []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) MarkEventAsProcessed(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE outbox_events SET processed_at = ? WHERE id = ? AND processed_at IS NULL`), s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("outbox event %d not found or already processed", id)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind turns ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
