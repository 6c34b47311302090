package qualification

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/loyara/internal/clock"
	"github.com/smallbiznis/loyara/internal/config"
	"github.com/smallbiznis/loyara/internal/dedup"
	directorydomain "github.com/smallbiznis/loyara/internal/directory/domain"
	obsmetrics "github.com/smallbiznis/loyara/internal/observability/metrics"
	"github.com/smallbiznis/loyara/internal/qualification/domain"
	"github.com/smallbiznis/loyara/internal/recency"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Directory directorydomain.Directory
	Orders    directorydomain.OrderSource
	Dedup      dedup.Deduplicator
	Recency    *recency.Tracker
	Policy     *config.PolicyHolder
	Reconciler *Reconciler
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	directory  directorydomain.Directory
	orders     directorydomain.OrderSource
	dedup      dedup.Deduplicator
	recency    *recency.Tracker
	policy     *config.PolicyHolder
	reconciler *Reconciler
	metrics    *obsmetrics.Metrics
	customers  *keyedMutex
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("qualification"),
		clock:      p.Clock,
		directory:  p.Directory,
		orders:     p.Orders,
		dedup:      p.Dedup,
		recency:    p.Recency,
		policy:     p.Policy,
		reconciler: p.Reconciler,
		metrics:    p.Metrics,
		customers:  newKeyedMutex(),
	}
}

// ProcessOrderEvent runs one webhook event through the pipeline: dedup gate,
// order and customer fetch, evaluation, reconciliation, recency mark. Benign
// dead ends (duplicate delivery, missing order, guest order) are successful
// no-ops; only unexpected failures return an error so the HTTP layer can
// surface a 500 and provoke redelivery.
func (s *Service) ProcessOrderEvent(ctx context.Context, scope string, orderID, createdAt int64) (domain.Outcome, error) {
	if orderID == 0 {
		return domain.OutcomeIgnored, nil
	}

	event := dedup.Event{Scope: scope, SubjectID: orderID, CreatedAt: createdAt}
	fresh, err := s.dedup.ShouldProcess(ctx, event)
	if err != nil {
		// Dedup store trouble must not drop orders; fall through and
		// rely on idempotent reconciliation.
		s.log.Warn("dedup check failed, processing anyway", zap.Error(err))
	} else if !fresh {
		s.count(domain.OutcomeDuplicate)
		return domain.OutcomeDuplicate, nil
	}

	order, err := s.orders.FetchOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, directorydomain.ErrNotFound) {
			s.log.Info("order not found, ignoring event", zap.Int64("order_id", orderID))
			s.count(domain.OutcomeIgnored)
			return domain.OutcomeIgnored, nil
		}
		s.directoryError("fetch_order")
		return "", err
	}
	if order.CustomerID == 0 {
		s.count(domain.OutcomeIgnored)
		return domain.OutcomeIgnored, nil
	}

	s.customers.Lock(order.CustomerID)
	defer s.customers.Unlock(order.CustomerID)

	outcome, err := s.evaluateAndApply(ctx, order)
	if err != nil {
		return "", err
	}
	s.count(outcome)
	return outcome, nil
}

func (s *Service) evaluateAndApply(ctx context.Context, order directorydomain.Order) (domain.Outcome, error) {
	policy := s.policy.Get()
	now := s.clock.Now()
	log := s.log.With(zap.Int64("order_id", order.ID), zap.Int64("customer_id", order.CustomerID))

	customer, err := s.directory.FetchCustomer(ctx, order.CustomerID)
	if err != nil {
		s.directoryError("fetch_customer")
		return "", err
	}
	isVIP := customer.GroupID != 0 && customer.GroupID == s.reconciler.vipGroupID

	input := EvaluateInput{
		CustomerID: order.CustomerID,
		IsVIP:      isVIP,
		Now:        now,
		Policy:     policy,
	}

	if isVIP {
		record, err := s.directory.FetchQualificationAttribute(ctx, order.CustomerID)
		if err != nil {
			// Soft failure: without the record we cannot tell whether
			// the window lapsed, so leave the customer untouched and
			// let the sweep settle it.
			s.directoryError("fetch_attribute")
			log.Warn("qualification record read failed, skipping event", zap.Error(err))
			return domain.OutcomeNoAction, nil
		}
		if record != nil {
			input.QualifiedDate = record.Value
		}
	} else {
		items, err := s.orders.FetchOrderLineItems(ctx, order.ID)
		if err != nil {
			s.directoryError("fetch_line_items")
			return "", err
		}
		input.TotalQuantity = directorydomain.TotalQuantity(items)
	}

	decision := Evaluate(input)
	if s.metrics != nil {
		s.metrics.IncDecision(decision.String())
	}

	switch decision {
	case domain.DecisionIgnore:
		return domain.OutcomeIgnored, nil
	case domain.DecisionNoAction:
		return domain.OutcomeNoAction, nil
	}

	date := now.Format(domain.DateLayout)
	result, err := s.reconciler.Apply(ctx, order.CustomerID, decision, date)
	if err != nil {
		return "", err
	}

	if decision == domain.DecisionRequalify {
		log.Info("customer qualified for vip pricing",
			zap.Int("total_quantity", input.TotalQuantity),
			zap.Bool("verified", result.Verified),
		)
		if result.Verified {
			s.recency.MarkQualified(order.CustomerID, now)
		}
		return domain.OutcomeQualified, nil
	}

	log.Info("customer demoted from vip pricing")
	return domain.OutcomeDemoted, nil
}

// PopupStatus reports whether the customer just qualified (one-shot) plus the
// current VIP view for the storefront widget. Directory trouble degrades to
// whatever was already known rather than failing the check.
func (s *Service) PopupStatus(ctx context.Context, customerID int64, now time.Time) (domain.PopupStatus, error) {
	status := domain.PopupStatus{
		JustQualified: s.recency.ConsumeIfRecent(customerID, now),
	}

	customer, err := s.directory.FetchCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, directorydomain.ErrNotFound) {
			return status, nil
		}
		s.directoryError("fetch_customer")
		s.log.Warn("popup customer read failed", zap.Int64("customer_id", customerID), zap.Error(err))
		return status, nil
	}

	policy := s.policy.Get()
	status.IsVIP = customer.GroupID != 0 && customer.GroupID == s.reconciler.vipGroupID
	if !status.IsVIP {
		return status, nil
	}

	record, err := s.directory.FetchQualificationAttribute(ctx, customerID)
	if err != nil {
		s.directoryError("fetch_attribute")
		s.log.Warn("popup attribute read failed", zap.Int64("customer_id", customerID), zap.Error(err))
		return status, nil
	}
	if record != nil {
		status.QualifiedDate = record.Value
		status.DaysLeft = DaysLeft(now, record.Value, policy)
	}
	return status, nil
}

func (s *Service) count(outcome domain.Outcome) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(string(outcome))
	}
}

func (s *Service) directoryError(operation string) {
	if s.metrics != nil {
		s.metrics.IncDirectoryError(operation)
	}
}
