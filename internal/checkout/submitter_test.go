package checkout

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCarts struct {
	m       sync.Mutex
	cart    *domain.Cart
	getErr  error
	removed int
}

func (m *mockCarts) LoadCart(context.Context, string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	c := *m.cart
	c.Items = slices.Clone(m.cart.Items)
	return &c, nil
}

func (m *mockCarts) RemoveOrdered(_ context.Context, _ string, ordered []domain.LineItem) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.removed++
	cart.New(m.cart).Deduct(ordered)
	return m.cart, nil
}

func (m *mockCarts) add(item domain.LineItem) {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart.Items = append(m.cart.Items, item)
}

type mockOrders struct {
	conf      *domain.Confirmation
	err       error
	gotToken  string
	gotReq    domain.OrderRequest
	calls     int
	beforeRet func()
}

func (m *mockOrders) CreateOrder(_ context.Context, token string, req domain.OrderRequest) (*domain.Confirmation, error) {
	m.calls++
	m.gotToken = token
	m.gotReq = req
	if m.beforeRet != nil {
		m.beforeRet()
	}
	return m.conf, m.err
}

type mockReceipts struct {
	recorded []domain.Receipt
	err      error
}

func (m *mockReceipts) RecordOrder(_ context.Context, r domain.Receipt) error {
	m.recorded = append(m.recorded, r)
	return m.err
}

func TestSubmit_Success(t *testing.T) {
	carts := &mockCarts{cart: testCart()}
	orders := &mockOrders{conf: &domain.Confirmation{OrderID: 77, Number: "1077"}}
	receipts := &mockReceipts{}
	guard := NewMemoryGuard()

	sut := NewSubmitter(carts, orders, receipts, guard)
	conf, err := sut.Submit(context.Background(), "s-1", "tok", testDraft())
	require.NoError(t, err)

	assert.Equal(t, int64(77), conf.OrderID)
	assert.Equal(t, "1077", conf.Number)
	assert.Equal(t, "tok", orders.gotToken)
	assert.Len(t, orders.gotReq.LineItems, 2)
	assert.Equal(t, 1, carts.removed)
	assert.Empty(t, carts.cart.Items)

	require.Len(t, receipts.recorded, 1)
	assert.Equal(t, "s-1", receipts.recorded[0].SessionID)
	assert.Equal(t, int64(77), receipts.recorded[0].OrderID)
	assert.Equal(t, domain.PaymentMethodBACS, receipts.recorded[0].PaymentMethod)

	ok, _ := guard.Acquire(context.Background(), "s-1")
	assert.True(t, ok, "guard must be released after submission")
}

func TestSubmit_KeepsItemsAddedDuringSubmission(t *testing.T) {
	carts := &mockCarts{cart: testCart()}
	orders := &mockOrders{conf: &domain.Confirmation{OrderID: 8, Number: "8"}}
	orders.beforeRet = func() {
		carts.add(domain.LineItem{ID: "late", ProductID: 30, Quantity: 1})
	}

	sut := NewSubmitter(carts, orders, nil, NewMemoryGuard())
	_, err := sut.Submit(context.Background(), "s-1", "", testDraft())
	require.NoError(t, err)

	assert.Len(t, orders.gotReq.LineItems, 2)
	require.Len(t, carts.cart.Items, 1)
	assert.Equal(t, "late", carts.cart.Items[0].ID)
}

func TestSubmit_EmptyCart(t *testing.T) {
	carts := &mockCarts{cart: &domain.Cart{SessionID: "s-1"}}
	orders := &mockOrders{}

	sut := NewSubmitter(carts, orders, nil, NewMemoryGuard())
	_, err := sut.Submit(context.Background(), "s-1", "", testDraft())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, orders.calls)
}

func TestSubmit_IncompleteSelection(t *testing.T) {
	c := testCart()
	c.Items[1].Attributes = nil
	c.Items[1].Name = "Linen Shirt"
	orders := &mockOrders{}

	sut := NewSubmitter(&mockCarts{cart: c}, orders, nil, NewMemoryGuard())
	_, err := sut.Submit(context.Background(), "s-1", "", testDraft())

	var incomplete *IncompleteSelectionError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"Linen Shirt"}, incomplete.Items)
	assert.Zero(t, orders.calls)
}

func TestSubmit_ValidationFailure(t *testing.T) {
	draft := testDraft()
	draft.Email = ""
	orders := &mockOrders{}

	sut := NewSubmitter(&mockCarts{cart: testCart()}, orders, nil, NewMemoryGuard())
	_, err := sut.Submit(context.Background(), "s-1", "", draft)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "email")
	assert.Zero(t, orders.calls)
}

func TestSubmit_OrderRejectedKeepsCart(t *testing.T) {
	carts := &mockCarts{cart: testCart()}
	rejection := errors.New("Sorry, we do not have enough stock")
	orders := &mockOrders{err: rejection}
	receipts := &mockReceipts{}
	guard := NewMemoryGuard()

	sut := NewSubmitter(carts, orders, receipts, guard)
	_, err := sut.Submit(context.Background(), "s-1", "", testDraft())

	assert.ErrorIs(t, err, rejection)
	assert.Equal(t, "Sorry, we do not have enough stock", err.Error())
	assert.Zero(t, carts.removed)
	assert.Len(t, carts.cart.Items, 2)
	assert.Empty(t, receipts.recorded)

	ok, _ := guard.Acquire(context.Background(), "s-1")
	assert.True(t, ok)
}

func TestSubmit_RejectsWhileInFlight(t *testing.T) {
	guard := NewMemoryGuard()
	carts := &mockCarts{cart: testCart()}
	var second error
	orders := &mockOrders{conf: &domain.Confirmation{OrderID: 1, Number: "1"}}

	sut := NewSubmitter(carts, orders, nil, guard)
	orders.beforeRet = func() {
		_, second = sut.Submit(context.Background(), "s-1", "", testDraft())
	}

	_, err := sut.Submit(context.Background(), "s-1", "", testDraft())
	require.NoError(t, err)
	assert.ErrorIs(t, second, ErrSubmissionInProgress)
	assert.Equal(t, 1, orders.calls)
}

func TestSubmit_ReceiptFailureDoesNotFailOrder(t *testing.T) {
	orders := &mockOrders{conf: &domain.Confirmation{OrderID: 5, Number: "5"}}
	receipts := &mockReceipts{err: errors.New("db down")}

	sut := NewSubmitter(&mockCarts{cart: testCart()}, orders, receipts, NewMemoryGuard())
	conf, err := sut.Submit(context.Background(), "s-1", "", testDraft())

	require.NoError(t, err)
	assert.Equal(t, int64(5), conf.OrderID)
}

func TestSubmit_CartLoadError(t *testing.T) {
	sut := NewSubmitter(&mockCarts{getErr: errors.New("mongo down")}, &mockOrders{}, nil, NewMemoryGuard())
	_, err := sut.Submit(context.Background(), "s-1", "", testDraft())
	require.ErrorContains(t, err, "mongo down")
}
