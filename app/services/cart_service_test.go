package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
)

func TestCartAddAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", nil)

	_, err := f.cart.Add(ctx, u.ID, p.ID, "M")
	require.NoError(t, err)
	cart, err := f.cart.Add(ctx, u.ID, p.ID, "M")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity(p.ID, "M"))

	cart, err = f.cart.Update(ctx, u.ID, p.ID, "L", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Count())

	cart, err = f.cart.Update(ctx, u.ID, p.ID, "M", 0)
	require.NoError(t, err)
	assert.Equal(t, models.Cart{p.ID: {"L": 3}}, cart)

	stored, err := f.cart.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, cart, stored)
}

func TestCartRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", nil)

	_, err := f.cart.Add(ctx, u.ID, "missing", "M")
	assert.ErrorIs(t, err, services.ErrNotFound)

	var verr *services.ValidationError
	_, err = f.cart.Add(ctx, u.ID, p.ID, "XXL")
	assert.ErrorAs(t, err, &verr)

	_, err = f.cart.Update(ctx, u.ID, p.ID, "M", -1)
	assert.ErrorAs(t, err, &verr)

	cart, err := f.cart.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartIsPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	a := f.shopper(t, "a@example.com", nil)
	b := f.shopper(t, "b@example.com", nil)

	_, err := f.cart.Add(ctx, a.ID, p.ID, "S")
	require.NoError(t, err)

	cart, err := f.cart.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
