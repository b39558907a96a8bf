package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/dbx"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/cleanup"
	"github.com/dmitrijs2005/gophshop/internal/server/config"
	"github.com/dmitrijs2005/gophshop/internal/server/metrics"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/payments"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/repomanager"
)

// InconsistentCheckoutError reports a checkout where the customer was
// charged but the order could not be recorded. It matches
// common.ErrInconsistent with errors.Is and carries what an operator needs to
// reconcile against the payment gateway.
type InconsistentCheckoutError struct {
	ChargeID string
	UserID   string
	Amount   int64
	Err      error
}

func (e *InconsistentCheckoutError) Error() string {
	return fmt.Sprintf("%v: charge %s for user %s (amount %d) has no order: %v",
		common.ErrInconsistent, e.ChargeID, e.UserID, e.Amount, e.Err)
}

func (e *InconsistentCheckoutError) Unwrap() []error {
	return []error{common.ErrInconsistent, e.Err}
}

// CleanupEnqueuer accepts cart cleanups that failed inline.
type CleanupEnqueuer interface {
	Push(ctx context.Context, job cleanup.Job) error
}

// CheckoutService turns a cart into a paid order. The steps run in order:
//
//	INITIATED -> CART_LOADED -> CHARGED -> ORDER_PERSISTED -> CART_CLEARED
//
// Nothing is written before the charge succeeds. A failure to write the
// order after the charge is an InconsistentCheckoutError. A failure to clear
// the cart after the order is written is logged and queued for retry, and
// the checkout still succeeds.
type CheckoutService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	charger        payments.Charger
	cleanup        CleanupEnqueuer
	currency       string
	paymentTimeout time.Duration
	logger         logging.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
}

func NewCheckoutService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	charger payments.Charger, queue CleanupEnqueuer, logger logging.Logger, mt *metrics.Metrics) *CheckoutService {
	return &CheckoutService{
		db:             db,
		repomanager:    m,
		charger:        charger,
		cleanup:        queue,
		currency:       cfg.Currency,
		paymentTimeout: cfg.PaymentTimeout,
		logger:         logger,
		metrics:        mt,
		now:            time.Now,
	}
}

// checkoutRun tracks the step a single checkout has reached.
type checkoutRun struct {
	step models.CheckoutStep
}

func (r *checkoutRun) advance(next models.CheckoutStep) {
	if !r.step.CanTransitionTo(next) {
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", r.step, next))
	}
	r.step = next
}

// Checkout charges the caller's cart using the payment source token.
func (s *CheckoutService) Checkout(ctx context.Context, userID, token string) (*models.Order, error) {
	run := &checkoutRun{step: models.CheckoutInitiated}

	if err := auth.RequireAuthenticated(userID); err != nil {
		return nil, err
	}

	snapshot, err := s.loadCart(ctx, userID)
	if err != nil {
		s.metrics.CheckoutFinished(metrics.CheckoutError)
		return nil, err
	}
	if snapshot.Empty() {
		s.metrics.CheckoutFinished(metrics.CheckoutEmptyCart)
		return nil, fmt.Errorf("%w: your cart is empty", common.ErrValidation)
	}
	run.advance(models.CheckoutCartLoaded)

	amount := snapshot.Total()
	if amount > models.MaxAmount {
		s.metrics.CheckoutFinished(metrics.CheckoutError)
		return nil, fmt.Errorf("%w: order total exceeds %d", common.ErrValidation, models.MaxAmount)
	}
	log := s.logger.With("user_id", userID, "amount", amount)

	charge, err := s.charge(ctx, amount, token)
	if err != nil {
		s.metrics.CheckoutFinished(metrics.CheckoutPaymentFailed)
		log.Warn(ctx, "checkout charge failed", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrPaymentFailed, err)
	}
	run.advance(models.CheckoutCharged)
	s.metrics.Charged(charge.Amount)
	log = log.With("charge_id", charge.ID)

	order, err := s.persistOrder(ctx, userID, charge, snapshot)
	if err != nil {
		s.metrics.CheckoutFinished(metrics.CheckoutInconsistent)
		log.Error(ctx, "checkout charged but order not saved",
			"severity", "critical", "step", run.step.String(), "error", err)
		return nil, &InconsistentCheckoutError{ChargeID: charge.ID, UserID: userID, Amount: charge.Amount, Err: err}
	}
	run.advance(models.CheckoutOrderPersisted)
	log = log.With("order_id", order.ID)

	if err := s.clearCart(ctx, userID, snapshot); err != nil {
		log.Error(ctx, "cart not cleared after checkout", "error", err)
		s.enqueueCleanup(ctx, log, userID, order.ID, snapshot)
	} else {
		run.advance(models.CheckoutCartCleared)
	}

	s.metrics.CheckoutFinished(metrics.CheckoutOK)
	log.Info(ctx, "checkout completed", "step", run.step.String())
	return order, nil
}

func (s *CheckoutService) loadCart(ctx context.Context, userID string) (*models.CartSnapshot, error) {
	items, err := s.repomanager.CartItems(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading cart: %w", err)
	}
	return &models.CartSnapshot{UserID: userID, Items: items}, nil
}

func (s *CheckoutService) charge(ctx context.Context, amount int64, token string) (*payments.Charge, error) {
	if s.paymentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.paymentTimeout)
		defer cancel()
	}
	return s.charger.Charge(ctx, amount, s.currency, token)
}

// persistOrder writes the order with the confirmed charge amount as total and
// one order item per snapshot line, in one transaction.
func (s *CheckoutService) persistOrder(ctx context.Context, userID string, charge *payments.Charge, snapshot *models.CartSnapshot) (*models.Order, error) {
	order := &models.Order{
		UserID: userID,
		Total:  charge.Amount,
		Charge: charge.ID,
		Items:  make([]*models.OrderItem, 0, len(snapshot.Items)),
	}
	for _, ci := range snapshot.Items {
		order.Items = append(order.Items, models.NewOrderItem(userID, ci))
	}

	var saved *models.Order
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		saved, err = s.repomanager.Orders(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// clearCart deletes only the lines captured in the snapshot, so items added
// while the checkout was running stay in the cart.
func (s *CheckoutService) clearCart(ctx context.Context, userID string, snapshot *models.CartSnapshot) error {
	n, err := s.repomanager.CartItems(s.db).DeleteByIDs(ctx, userID, snapshot.IDs())
	if err != nil {
		return err
	}
	if want := int64(len(snapshot.Items)); n != want {
		s.logger.Warn(ctx, "cart cleanup removed fewer lines than expected", "user_id", userID, "removed", n, "expected", want)
	}
	return nil
}

func (s *CheckoutService) enqueueCleanup(ctx context.Context, log logging.Logger, userID, orderID string, snapshot *models.CartSnapshot) {
	if s.cleanup == nil {
		return
	}
	// the request context may already be cancelled; the job must still land
	ctx = context.WithoutCancel(ctx)

	job := cleanup.Job{UserID: userID, OrderID: orderID, CartItemIDs: snapshot.IDs(), EnqueuedAt: s.now()}
	if err := s.cleanup.Push(ctx, job); err != nil {
		log.Error(ctx, "cart cleanup could not be queued", "error", err)
		return
	}
	s.metrics.CleanupJob("enqueued")
}

// IsInconsistent reports whether err is a charged-but-unrecorded checkout.
func IsInconsistent(err error) bool {
	var ie *InconsistentCheckoutError
	return errors.As(err, &ie)
}
