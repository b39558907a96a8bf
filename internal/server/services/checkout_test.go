package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/cleanup"
	"github.com/dmitrijs2005/gophshop/internal/server/config"
	"github.com/dmitrijs2005/gophshop/internal/server/metrics"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCharger struct {
	mu     sync.Mutex
	calls  []int64
	err    error
	amount func(int64) int64
	onCall func()
}

func (f *fakeCharger) Charge(ctx context.Context, amount int64, currency, token string) (*payments.Charge, error) {
	f.mu.Lock()
	f.calls = append(f.calls, amount)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("charge called without a deadline")
	}
	confirmed := amount
	if f.amount != nil {
		confirmed = f.amount(amount)
	}
	return &payments.Charge{ID: "ch_1", Amount: confirmed, Currency: currency}, nil
}

type failingQueue struct{}

func (failingQueue) Push(context.Context, cleanup.Job) error { return errors.New("queue down") }

type checkoutFixture struct {
	st      *store
	user    string
	charger *fakeCharger
	queue   *cleanup.MemoryQueue
	metrics *metrics.Metrics
	mock    sqlmock.Sqlmock
	svc     *CheckoutService
}

// newCheckoutFixture seeds a user with 2 x 1000 and 1 x 500 in the cart.
func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)

	st := newStore()
	u := st.addUser("a", "a@b.c")
	a := st.addItem("A", 1000, "")
	b := st.addItem("B", 500, "")
	cart := &fakeCartRepo{st}
	for _, id := range []string{a.ID, a.ID, b.ID} {
		_, err := cart.Add(context.Background(), u.ID, id)
		require.NoError(t, err)
	}

	f := &checkoutFixture{
		st:      st,
		user:    u.ID,
		charger: &fakeCharger{},
		queue:   cleanup.NewMemoryQueue(),
		metrics: metrics.New(),
		mock:    mock,
	}
	cfg := &config.Config{Currency: "GBP", PaymentTimeout: time.Second}
	f.svc = NewCheckoutService(db, &fakeRepoManager{st}, cfg, f.charger, f.queue, logging.Nop(), f.metrics)
	return f
}

func checkoutCount(t *testing.T, m *metrics.Metrics, result string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "gophshop_checkout_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCheckout_Success(t *testing.T) {
	f := newCheckoutFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	order, err := f.svc.Checkout(context.Background(), f.user, "tok_visa")
	require.NoError(t, err)

	assert.Equal(t, []int64{2500}, f.charger.calls)
	assert.Equal(t, int64(2500), order.Total)
	assert.Equal(t, "ch_1", order.Charge)
	assert.Equal(t, f.user, order.UserID)
	require.Len(t, order.Items, 2)

	var sum int64
	for _, oi := range order.Items {
		sum += oi.Price * int64(oi.Quantity)
		assert.Equal(t, order.ID, oi.OrderID)
		assert.Equal(t, f.user, oi.UserID)
	}
	assert.Equal(t, order.Total, sum)

	assert.Empty(t, f.st.cartOf(f.user))
	assert.Len(t, f.st.orders, 1)
	assert.Equal(t, 1.0, checkoutCount(t, f.metrics, metrics.CheckoutOK))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_TotalIsConfirmedAmount(t *testing.T) {
	f := newCheckoutFixture(t)
	f.charger.amount = func(requested int64) int64 { return requested - 100 }
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	order, err := f.svc.Checkout(context.Background(), f.user, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(2400), order.Total)
}

func TestCheckout_Unauthenticated(t *testing.T) {
	f := newCheckoutFixture(t)
	_, err := f.svc.Checkout(context.Background(), "", "tok")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Empty(t, f.charger.calls)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	other := f.st.addUser("b", "b@b.c")

	_, err := f.svc.Checkout(context.Background(), other.ID, "tok")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, f.charger.calls)
	assert.Equal(t, 1.0, checkoutCount(t, f.metrics, metrics.CheckoutEmptyCart))
}

func TestCheckout_TotalOverLimitIsNotCharged(t *testing.T) {
	f := newCheckoutFixture(t)
	big := f.st.addItem("Yacht", models.MaxAmount, "")
	_, err := (&fakeCartRepo{f.st}).Add(context.Background(), f.user, big.ID)
	require.NoError(t, err)

	_, err = f.svc.Checkout(context.Background(), f.user, "tok_visa")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, f.charger.calls)
	assert.Empty(t, f.st.orders)
	assert.Len(t, f.st.cartOf(f.user), 3)
}

func TestCheckout_CartLoadError(t *testing.T) {
	f := newCheckoutFixture(t)
	f.st.listCartErr = errors.New("db down")

	_, err := f.svc.Checkout(context.Background(), f.user, "tok")
	require.Error(t, err)
	assert.Empty(t, f.charger.calls)
	assert.Equal(t, 1.0, checkoutCount(t, f.metrics, metrics.CheckoutError))
}

func TestCheckout_ChargeFailureWritesNothing(t *testing.T) {
	f := newCheckoutFixture(t)
	f.charger.err = errors.New("card declined")

	_, err := f.svc.Checkout(context.Background(), f.user, "tok")
	assert.ErrorIs(t, err, common.ErrPaymentFailed)
	assert.Contains(t, err.Error(), "card declined")

	assert.Empty(t, f.st.orders)
	assert.Len(t, f.st.cartOf(f.user), 2)
	assert.Equal(t, 1.0, checkoutCount(t, f.metrics, metrics.CheckoutPaymentFailed))
	// no transaction was opened
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_OrderWriteFailureIsInconsistent(t *testing.T) {
	f := newCheckoutFixture(t)
	f.st.createOrderErr = errors.New("disk full")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Checkout(context.Background(), f.user, "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInconsistent)
	assert.True(t, IsInconsistent(err))

	var ie *InconsistentCheckoutError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "ch_1", ie.ChargeID)
	assert.Equal(t, int64(2500), ie.Amount)
	assert.Contains(t, err.Error(), "ch_1")

	assert.Len(t, f.st.cartOf(f.user), 2)
	assert.Equal(t, 1.0, checkoutCount(t, f.metrics, metrics.CheckoutInconsistent))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_ClearsOnlySnapshotLines(t *testing.T) {
	f := newCheckoutFixture(t)
	late := f.st.addItem("Late", 300, "")
	// an item added while the charge is in flight is not part of the order
	f.charger.onCall = func() {
		_, err := (&fakeCartRepo{f.st}).Add(context.Background(), f.user, late.ID)
		require.NoError(t, err)
	}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	order, err := f.svc.Checkout(context.Background(), f.user, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), order.Total)

	left := f.st.cartOf(f.user)
	require.Len(t, left, 1)
	assert.Equal(t, late.ID, left[0].ItemID)
}

func TestCheckout_PriceChangeMidCheckoutIgnored(t *testing.T) {
	f := newCheckoutFixture(t)
	items := &fakeItemsRepo{f.st}
	f.charger.onCall = func() {
		for _, it := range f.st.items {
			_, err := items.Update(context.Background(), &models.Item{ID: it.ID, Title: it.Title, Price: it.Price * 10})
			require.NoError(t, err)
		}
	}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	order, err := f.svc.Checkout(context.Background(), f.user, "tok_visa")
	require.NoError(t, err)

	assert.Equal(t, []int64{2500}, f.charger.calls)
	assert.Equal(t, int64(2500), order.Total)
	prices := map[string]int64{}
	for _, oi := range order.Items {
		prices[oi.Title] = oi.Price
	}
	assert.Equal(t, map[string]int64{"A": 1000, "B": 500}, prices)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckout_CartClearFailureQueuesCleanup(t *testing.T) {
	f := newCheckoutFixture(t)
	f.st.deleteCartErr = errors.New("lock timeout")
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	order, err := f.svc.Checkout(context.Background(), f.user, "tok")
	require.NoError(t, err)
	require.NotNil(t, order)

	n, err := f.queue.Len(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	job, err := f.queue.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.user, job.UserID)
	assert.Equal(t, order.ID, job.OrderID)
	assert.Len(t, job.CartItemIDs, 2)

	// the retry clears the lines once the database recovers
	f.st.deleteCartErr = nil
	carts := NewCartService(nil, &fakeRepoManager{f.st}, logging.Nop())
	require.NoError(t, carts.ClearCartItems(context.Background(), job.UserID, job.CartItemIDs))
	assert.Empty(t, f.st.cartOf(f.user))
}

func TestCheckout_QueueFailureStillSucceeds(t *testing.T) {
	f := newCheckoutFixture(t)
	f.st.deleteCartErr = errors.New("lock timeout")
	f.svc.cleanup = failingQueue{}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	order, err := f.svc.Checkout(context.Background(), f.user, "tok")
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}
