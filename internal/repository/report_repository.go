package repository

import (
	"context"
	"encoding/json"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// ReportRepo answers the aggregate queries behind the KPI report and
// stores generated reports as JSON documents.
type ReportRepo struct {
	db DBTX
}

func NewReportRepo(db DBTX) *ReportRepo { return &ReportRepo{db: db} }

// ReservationsByStatus counts reservations per lifecycle state.
func (r *ReportRepo) ReservationsByStatus(ctx context.Context) (map[model.ReservationStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM reservations GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[model.ReservationStatus]int)
	for rows.Next() {
		var (
			st model.ReservationStatus
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}

// PaymentTotal sums payment amounts in the given state.
func (r *ReportRepo) PaymentTotal(ctx context.Context, status model.PaymentStatus) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE status = ?`, status).Scan(&total)
	return total, err
}

// RefundTotal sums refund amounts in the given state.
func (r *ReportRepo) RefundTotal(ctx context.Context, status model.RefundStatus) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM refund_requests WHERE status = ?`, status).Scan(&total)
	return total, err
}

// RefundCount counts refund requests in the given state.
func (r *ReportRepo) RefundCount(ctx context.Context, status model.RefundStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM refund_requests WHERE status = ?`, status).Scan(&n)
	return n, err
}

// ServiceCount counts services in the given state.
func (r *ReportRepo) ServiceCount(ctx context.Context, status model.ServiceStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services WHERE status = ?`, status).Scan(&n)
	return n, err
}

// ProviderCount counts provider profiles.
func (r *ReportRepo) ProviderCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM providers`).Scan(&n)
	return n, err
}

// AverageServiceRating is the mean aggregate rating of published services
// that have at least one review, 0 when there are none.
func (r *ReportRepo) AverageServiceRating(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM services WHERE status = 'PUBLISHED' AND review_count > 0`).Scan(&avg)
	return avg, err
}

// Save stores a generated report.
func (r *ReportRepo) Save(ctx context.Context, rep *model.KPIReport) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO kpi_reports (id, payload, generated_at) VALUES (?, ?, ?)`, rep.ID, payload, rep.GeneratedAt)
	return err
}

// Latest returns the most recently generated report.
func (r *ReportRepo) Latest(ctx context.Context) (model.KPIReport, error) {
	var (
		rep     model.KPIReport
		payload []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM kpi_reports ORDER BY generated_at DESC LIMIT 1`).Scan(&payload)
	if err != nil {
		return rep, notFound(err)
	}
	err = json.Unmarshal(payload, &rep)
	return rep, err
}
