package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMoney(t *testing.T) {
	t.Run("valid amount", func(t *testing.T) {
		m, err := NewMoney(2550, "BRL")
		assert.NoError(t, err)
		assert.Equal(t, int64(2550), m.Amount)
		assert.Equal(t, "BRL", m.Currency)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := NewMoney(-1, "BRL")
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("empty currency defaults to BRL", func(t *testing.T) {
		m, err := NewMoney(100, "")
		assert.NoError(t, err)
		assert.Equal(t, DefaultCurrency, m.Currency)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum, err := MustMoney(150, "BRL").Add(MustMoney(50, "BRL"))
		assert.NoError(t, err)
		assert.Equal(t, int64(200), sum.Amount)
	})

	t.Run("sub", func(t *testing.T) {
		diff, err := MustMoney(500, "BRL").Sub(MustMoney(400, "BRL"))
		assert.NoError(t, err)
		assert.Equal(t, int64(100), diff.Amount)
	})

	t.Run("sub underflow", func(t *testing.T) {
		_, err := MustMoney(400, "BRL").Sub(MustMoney(500, "BRL"))
		assert.ErrorIs(t, err, ErrNegativeResult)
	})

	t.Run("mul", func(t *testing.T) {
		product, err := MustMoney(250, "BRL").MulInt(4)
		assert.NoError(t, err)
		assert.Equal(t, int64(1000), product.Amount)
	})

	t.Run("mul negative factor", func(t *testing.T) {
		_, err := MustMoney(250, "BRL").MulInt(-1)
		assert.ErrorIs(t, err, ErrNegativeFactor)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := MustMoney(100, "BRL").Add(MustMoney(100, "USD"))
		assert.ErrorIs(t, err, ErrCurrencyMismatch)

		_, err = MustMoney(100, "BRL").Cmp(MustMoney(100, "USD"))
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})
}

func TestMoney_Comparisons(t *testing.T) {
	a := MustMoney(500, "BRL")
	b := MustMoney(400, "BRL")

	assert.True(t, a.Equal(MustMoney(500, "BRL")))
	assert.False(t, a.Equal(b))

	c, err := a.Cmp(b)
	assert.NoError(t, err)
	assert.Equal(t, 1, c)

	ge, err := b.GreaterOrEqual(a)
	assert.NoError(t, err)
	assert.False(t, ge)

	ge, err = a.GreaterOrEqual(a)
	assert.NoError(t, err)
	assert.True(t, ge)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "25.50", MustMoney(2550, "BRL").String())
	assert.Equal(t, "0.05", MustMoney(5, "BRL").String())
	assert.Equal(t, "10.00", MustMoney(1000, "BRL").String())
	assert.Equal(t, "0.00", Zero("BRL").String())
}
