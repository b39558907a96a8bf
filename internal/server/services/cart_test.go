package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCart_SameItemTwiceBumpsQuantity(t *testing.T) {
	st := newStore()
	u := st.addUser("a", "a@b.c")
	it := st.addItem("Shoes", 1000, "")
	s := NewCartService(nil, &fakeRepoManager{st}, logging.Nop())
	ctx := context.Background()

	first, err := s.AddToCart(ctx, u.ID, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)
	require.NotNil(t, first.Item)
	assert.Equal(t, "Shoes", first.Item.Title)

	second, err := s.AddToCart(ctx, u.ID, it.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	cart := st.cartOf(u.ID)
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
}

func TestAddToCart_Concurrent(t *testing.T) {
	st := newStore()
	u := st.addUser("a", "a@b.c")
	it := st.addItem("Shoes", 1000, "")
	s := NewCartService(nil, &fakeRepoManager{st}, logging.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddToCart(context.Background(), u.ID, it.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart := st.cartOf(u.ID)
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
}

func TestAddToCart_Errors(t *testing.T) {
	st := newStore()
	u := st.addUser("a", "a@b.c")
	s := NewCartService(nil, &fakeRepoManager{st}, logging.Nop())

	_, err := s.AddToCart(context.Background(), "", "item-1")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = s.AddToCart(context.Background(), u.ID, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRemoveFromCart_OwnerOnly(t *testing.T) {
	st := newStore()
	owner := st.addUser("a", "a@b.c")
	other := st.addUser("b", "b@b.c")
	it := st.addItem("Shoes", 1000, "")
	s := NewCartService(nil, &fakeRepoManager{st}, logging.Nop())
	ctx := context.Background()

	ci, err := s.AddToCart(ctx, owner.ID, it.ID)
	require.NoError(t, err)

	_, err = s.RemoveFromCart(ctx, other.ID, ci.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Len(t, st.cartOf(owner.ID), 1)

	_, err = s.RemoveFromCart(ctx, owner.ID, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	removed, err := s.RemoveFromCart(ctx, owner.ID, ci.ID)
	require.NoError(t, err)
	assert.Equal(t, ci.ID, removed.ID)
	assert.Empty(t, st.cartOf(owner.ID))
}

func TestCart_ListsOnlyCallersLines(t *testing.T) {
	st := newStore()
	a := st.addUser("a", "a@b.c")
	b := st.addUser("b", "b@b.c")
	it := st.addItem("Shoes", 1000, "")
	s := NewCartService(nil, &fakeRepoManager{st}, logging.Nop())
	ctx := context.Background()

	_, err := s.AddToCart(ctx, a.ID, it.ID)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, b.ID, it.ID)
	require.NoError(t, err)

	cart, err := s.Cart(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, a.ID, cart[0].UserID)
	assert.Equal(t, int64(1000), cart[0].Subtotal())

	_, err = s.Cart(ctx, "")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}
