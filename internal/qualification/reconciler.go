package qualification

import (
	"context"
	"errors"
	"time"

	directorydomain "github.com/smallbiznis/loyara/internal/directory/domain"
	"github.com/smallbiznis/loyara/internal/qualification/domain"
	"go.uber.org/zap"
)

const defaultVerifyDelay = 2 * time.Second

// Reconciler applies evaluator decisions against the remote directory. The
// two writes behind Requalify are independent network calls with no
// cross-call transaction; a partial failure stands until the next sweep or
// the customer's next order re-evaluates them.
type Reconciler struct {
	directory   directorydomain.Directory
	log         *zap.Logger
	verifyDelay time.Duration
	vipGroupID  int64
}

func NewReconciler(directory directorydomain.Directory, log *zap.Logger, vipGroupID int64) *Reconciler {
	return &Reconciler{
		directory:   directory,
		log:         log.Named("reconciler"),
		verifyDelay: defaultVerifyDelay,
		vipGroupID:  vipGroupID,
	}
}

// Apply issues the directory writes for a decision. Ignore and NoAction make
// no calls. The returned error reflects only write failures; a failed
// verification is logged and reported through ReconcileResult.Verified.
func (r *Reconciler) Apply(ctx context.Context, customerID int64, decision domain.Decision, date string) (domain.ReconcileResult, error) {
	switch decision {
	case domain.DecisionRequalify:
		return r.requalify(ctx, customerID, date)
	case domain.DecisionDemote:
		return r.demote(ctx, customerID)
	default:
		return domain.ReconcileResult{}, nil
	}
}

func (r *Reconciler) requalify(ctx context.Context, customerID int64, date string) (domain.ReconcileResult, error) {
	var result domain.ReconcileResult
	log := r.log.With(zap.Int64("customer_id", customerID), zap.String("date", date))

	if err := r.directory.UpsertQualificationAttribute(ctx, customerID, date); err != nil {
		log.Warn("qualification date write failed", zap.Error(err))
		return result, err
	}
	result.DateWritten = true

	if err := r.directory.SetCustomerGroup(ctx, customerID, r.vipGroupID); err != nil {
		// Date landed but group did not; the next sweep or order event
		// re-evaluates this customer.
		log.Warn("vip group write failed after date write", zap.Error(err))
		return result, err
	}
	result.GroupWritten = true

	result.Verified = r.verify(ctx, customerID, date, log)
	return result, nil
}

// verify re-reads the attribute after a short delay to tolerate eventual
// consistency in the directory. Verification failure is logged, not retried.
func (r *Reconciler) verify(ctx context.Context, customerID int64, date string, log *zap.Logger) bool {
	if r.verifyDelay > 0 {
		select {
		case <-ctx.Done():
			log.Warn("verification skipped", zap.Error(ctx.Err()))
			return false
		case <-time.After(r.verifyDelay):
		}
	}

	record, err := r.directory.FetchQualificationAttribute(ctx, customerID)
	if err != nil {
		log.Warn("verification read failed", zap.Error(err))
		return false
	}
	if record == nil || record.Value != date {
		log.Warn("qualification date did not stick")
		return false
	}
	return true
}

func (r *Reconciler) demote(ctx context.Context, customerID int64) (domain.ReconcileResult, error) {
	var result domain.ReconcileResult
	log := r.log.With(zap.Int64("customer_id", customerID))

	if err := r.directory.SetCustomerGroup(ctx, customerID, 0); err != nil {
		log.Warn("vip group removal failed", zap.Error(err))
		return result, err
	}
	result.GroupWritten = true

	record, err := r.directory.FetchQualificationAttribute(ctx, customerID)
	if err != nil {
		log.Warn("qualification record lookup failed during demote", zap.Error(err))
		return result, err
	}
	if record == nil {
		// Already clean.
		result.DateWritten = true
		result.Verified = true
		return result, nil
	}

	if err := r.directory.DeleteQualificationAttribute(ctx, record.RecordID); err != nil {
		if errors.Is(err, directorydomain.ErrNotFound) {
			result.DateWritten = true
			result.Verified = true
			return result, nil
		}
		log.Warn("qualification record delete failed", zap.Error(err))
		return result, err
	}
	result.DateWritten = true
	result.Verified = true
	return result, nil
}

// DemoteRecord deletes a known attribute record and removes the group. The
// sweeper uses it to avoid a second lookup per record.
func (r *Reconciler) DemoteRecord(ctx context.Context, record directorydomain.AttributeValue) error {
	log := r.log.With(zap.Int64("customer_id", record.CustomerID), zap.Int64("record_id", record.RecordID))

	if err := r.directory.SetCustomerGroup(ctx, record.CustomerID, 0); err != nil {
		log.Warn("vip group removal failed", zap.Error(err))
		return err
	}
	if err := r.directory.DeleteQualificationAttribute(ctx, record.RecordID); err != nil && !errors.Is(err, directorydomain.ErrNotFound) {
		log.Warn("qualification record delete failed", zap.Error(err))
		return err
	}
	return nil
}
