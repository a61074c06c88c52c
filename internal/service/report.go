package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// ReportService builds the periodic KPI report.
type ReportService struct {
	base
}

func NewReportService(d Deps) *ReportService {
	return &ReportService{base: newBase(d)}
}

// Generate computes and stores a KPI report.  Each figure is queried on
// its own; a failing query is logged and leaves that figure at zero
// rather than aborting the report.
func (s *ReportService) Generate(ctx context.Context) (rep model.KPIReport, err error) {
	ctx, span := startSpan(ctx, "report.generate")
	defer func() { endSpan(span, err) }()

	st := s.store.Reports()
	rep = model.KPIReport{ID: s.newID(), GeneratedAt: s.clock()}
	failed := 0
	step := func(name string, fn func() error) {
		if err := fn(); err != nil {
			failed++
			s.log.Error("kpi figure failed", zap.String("figure", name), zap.Error(err))
		}
	}

	step("reservations_by_status", func() (err error) {
		rep.ReservationsByStatus, err = st.ReservationsByStatus(ctx)
		for _, n := range rep.ReservationsByStatus {
			rep.TotalReservations += n
		}
		return err
	})
	step("approved_revenue", func() (err error) {
		rep.ApprovedRevenueCents, err = st.PaymentTotal(ctx, model.PaymentApproved)
		return err
	})
	step("refunded_amount", func() (err error) {
		rep.RefundedAmountCents, err = st.RefundTotal(ctx, model.RefundApproved)
		return err
	})
	step("open_refund_requests", func() (err error) {
		rep.OpenRefundRequests, err = st.RefundCount(ctx, model.RefundRequested)
		return err
	})
	step("published_services", func() (err error) {
		rep.PublishedServices, err = st.ServiceCount(ctx, model.ServicePublished)
		return err
	})
	step("providers", func() (err error) {
		rep.Providers, err = st.ProviderCount(ctx)
		return err
	})
	step("average_service_rating", func() (err error) {
		var avg float64
		avg, err = st.AverageServiceRating(ctx)
		rep.AverageServiceRating = float64(int64(avg*100+0.5)) / 100
		return err
	})
	if rep.ReservationsByStatus == nil {
		rep.ReservationsByStatus = map[model.ReservationStatus]int{}
	}

	if err := st.Save(ctx, &rep); err != nil {
		return rep, err
	}
	s.mirror(rep)
	s.log.Info("kpi report generated", zap.String("report_id", rep.ID), zap.Int("failed_figures", failed))
	return rep, nil
}

func (s *ReportService) mirror(rep model.KPIReport) {
	for st, n := range rep.ReservationsByStatus {
		s.metrics.SetKPI("reservations_"+string(st), float64(n))
	}
	s.metrics.SetKPI("reservations_total", float64(rep.TotalReservations))
	s.metrics.SetKPI("approved_revenue_cents", float64(rep.ApprovedRevenueCents))
	s.metrics.SetKPI("refunded_amount_cents", float64(rep.RefundedAmountCents))
	s.metrics.SetKPI("open_refund_requests", float64(rep.OpenRefundRequests))
	s.metrics.SetKPI("published_services", float64(rep.PublishedServices))
	s.metrics.SetKPI("providers", float64(rep.Providers))
	s.metrics.SetKPI("average_service_rating", rep.AverageServiceRating)
}

// Latest returns the most recent stored report.
func (s *ReportService) Latest(ctx context.Context) (model.KPIReport, error) {
	rep, err := s.store.Reports().Latest(ctx)
	if err != nil {
		return rep, lookup("report", err)
	}
	return rep, nil
}
