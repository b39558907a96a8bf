package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/dbx"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/mailer"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/cartitems"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/items"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/orders"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// store is an in-memory stand-in for the database shared by the fake repos.
type store struct {
	mu     sync.Mutex
	seq    int
	users  map[string]*models.User
	items  map[string]*models.Item
	cart   map[string]*models.CartItem
	orders map[string]*models.Order

	// failure injection
	createOrderErr error
	deleteCartErr  error
	listCartErr    error
}

func newStore() *store {
	return &store{
		users:  map[string]*models.User{},
		items:  map[string]*models.Item{},
		cart:   map[string]*models.CartItem{},
		orders: map[string]*models.Order{},
	}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *store) addUser(name, email string, perms ...auth.Permission) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(perms) == 0 {
		perms = auth.DefaultPermissions()
	}
	u := &models.User{ID: s.nextID("user"), Name: name, Email: email, Permissions: perms}
	s.users[u.ID] = u
	return u
}

func (s *store) addItem(title string, price int64, ownerID string) *models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := &models.Item{ID: s.nextID("item"), Title: title, Price: price, UserID: ownerID}
	s.items[it.ID] = it
	return it
}

func (s *store) cartOf(userID string) []*models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.CartItem
	for _, ci := range s.cart {
		if ci.UserID == userID {
			c := *ci
			out = append(out, &c)
		}
	}
	return out
}

// --- users ---

type fakeUsersRepo struct{ s *store }

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrEmailTaken
		}
	}
	c := cloneUser(u)
	c.ID = r.s.nextID("user")
	c.CreatedAt = time.Now()
	r.s.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) SetResetToken(_ context.Context, userID, token string, expiry time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *fakeUsersRepo) find(token string, now time.Time) *models.User {
	for _, u := range r.s.users {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetTokenExpiry.After(now) {
			return u
		}
	}
	return nil
}

func (r *fakeUsersRepo) GetByResetToken(_ context.Context, token string, now time.Time) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.find(token, now)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *fakeUsersRepo) ConsumeResetToken(_ context.Context, token, hash string, now time.Time) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.find(token, now)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	u.Password = hash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return cloneUser(u), nil
}

func (r *fakeUsersRepo) UpdatePermissions(_ context.Context, userID string, perms auth.PermissionSet) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Permissions = perms
	return cloneUser(u), nil
}

// --- items ---

type fakeItemsRepo struct{ s *store }

func (r *fakeItemsRepo) Create(_ context.Context, it *models.Item) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *it
	c.ID = r.s.nextID("item")
	r.s.items[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeItemsRepo) GetByID(_ context.Context, id string) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *it
	return &c, nil
}

func (r *fakeItemsRepo) Update(_ context.Context, it *models.Item) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[it.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *it
	r.s.items[it.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeItemsRepo) Delete(_ context.Context, id string) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.items, id)
	return it, nil
}

// --- cart ---

type fakeCartRepo struct{ s *store }

func (r *fakeCartRepo) Add(_ context.Context, userID, itemID string) (*models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[itemID]; !ok {
		return nil, common.ErrorNotFound
	}
	for _, ci := range r.s.cart {
		if ci.UserID == userID && ci.ItemID == itemID {
			ci.Quantity++
			c := *ci
			return &c, nil
		}
	}
	ci := &models.CartItem{ID: r.s.nextID("cart"), UserID: userID, ItemID: itemID, Quantity: 1}
	r.s.cart[ci.ID] = ci
	c := *ci
	return &c, nil
}

func (r *fakeCartRepo) GetByID(_ context.Context, id string) (*models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ci, ok := r.s.cart[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *ci
	return &c, nil
}

func (r *fakeCartRepo) Delete(_ context.Context, id string) (*models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ci, ok := r.s.cart[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.cart, id)
	return ci, nil
}

func (r *fakeCartRepo) ListByUser(_ context.Context, userID string) ([]*models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listCartErr != nil {
		return nil, r.s.listCartErr
	}
	var out []*models.CartItem
	for _, ci := range r.s.cart {
		if ci.UserID != userID {
			continue
		}
		c := *ci
		if it, ok := r.s.items[ci.ItemID]; ok {
			item := *it
			c.Item = &item
		}
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeCartRepo) DeleteByIDs(_ context.Context, userID string, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteCartErr != nil {
		return 0, r.s.deleteCartErr
	}
	var n int64
	for _, id := range ids {
		if ci, ok := r.s.cart[id]; ok && ci.UserID == userID {
			delete(r.s.cart, id)
			n++
		}
	}
	return n, nil
}

// --- orders ---

type fakeOrdersRepo struct{ s *store }

func (r *fakeOrdersRepo) Create(_ context.Context, o *models.Order) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createOrderErr != nil {
		return nil, r.s.createOrderErr
	}
	c := *o
	c.ID = r.s.nextID("order")
	c.CreatedAt = time.Now()
	c.Items = nil
	for _, oi := range o.Items {
		item := *oi
		item.ID = r.s.nextID("orderitem")
		item.OrderID = c.ID
		c.Items = append(c.Items, &item)
	}
	r.s.orders[c.ID] = &c
	return &c, nil
}

func (r *fakeOrdersRepo) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return o, nil
}

func (r *fakeOrdersRepo) ListByUser(_ context.Context, userID string) ([]*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- manager ---

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return &fakeUsersRepo{m.s} }
func (m *fakeRepoManager) Items(dbx.DBTX) items.Repository              { return &fakeItemsRepo{m.s} }
func (m *fakeRepoManager) CartItems(dbx.DBTX) cartitems.Repository      { return &fakeCartRepo{m.s} }
func (m *fakeRepoManager) Orders(dbx.DBTX) orders.Repository            { return &fakeOrdersRepo{m.s} }

// --- mail ---

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}
