package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repo can run
// either standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository groups the per-table repos over one connection.  Repos
// obtained through WithTx share a single transaction.
type Repository struct {
	db *sql.DB

	Users         *UserRepo
	Tokens        *TokenRepo
	Providers     *ProviderRepo
	Services      *ServiceRepo
	Slots         *SlotRepo
	Reservations  *ReservationRepo
	Payments      *PaymentRepo
	Refunds       *RefundRepo
	Reviews       *ReviewRepo
	Notifications *NotificationRepo
	Reports       *ReportRepo
}

// New returns a Repository bound to db.
func New(db *sql.DB) *Repository {
	r := build(db)
	r.db = db
	return r
}

func build(q DBTX) *Repository {
	return &Repository{
		Users:         &UserRepo{db: q},
		Tokens:        &TokenRepo{db: q},
		Providers:     &ProviderRepo{db: q},
		Services:      &ServiceRepo{db: q},
		Slots:         &SlotRepo{db: q},
		Reservations:  &ReservationRepo{db: q},
		Payments:      &PaymentRepo{db: q},
		Refunds:       &RefundRepo{db: q},
		Reviews:       &ReviewRepo{db: q},
		Notifications: &NotificationRepo{db: q},
		Reports:       &ReportRepo{db: q},
	}
}

// WithTx runs fn inside a transaction.  fn receives a Repository whose
// repos all use that transaction; the transaction commits when fn returns
// nil and rolls back otherwise.  Calling WithTx on a Repository that is
// already transactional runs fn in the existing transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(build(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// expectOne turns a zero-row conditional update into ErrConflict.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// expectFound is expectOne for unconditional updates by id, where zero
// rows means the id does not exist.
func expectFound(res sql.Result, err error) error {
	if err := expectOne(res, err); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
