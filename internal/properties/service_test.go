package properties

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/pricing"
)

func TestAnalyzeUsesStoredEstimates(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	p, err := svc.Create(ctx, Property{Address: "410 Pine St", Price: 200000, ARVEstimate: 320000, MarketRentEstimate: 2000})
	require.NoError(t, err)

	flip, err := svc.Analyze(ctx, p.ID, AnalyzeRequest{Strategy: "flip", Flip: pricing.FlipInput{RehabTotal: 40000, MonthlyHoldingCost: 1000}})
	require.NoError(t, err)
	fb, ok := flip.(pricing.FlipBudget)
	require.True(t, ok)
	assert.Equal(t, 37200.0, fb.Profit)

	rental, err := svc.Analyze(ctx, p.ID, AnalyzeRequest{Strategy: "rental"})
	require.NoError(t, err)
	rb, ok := rental.(pricing.RentalBudget)
	require.True(t, ok)
	assert.Equal(t, 2000.0, rb.MonthlyRent)

	_, err = svc.Analyze(ctx, p.ID, AnalyzeRequest{Strategy: "airbnb"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRequiresAddress(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	_, err := svc.Create(context.Background(), Property{Price: 100})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()
	p, err := svc.Create(ctx, Property{Address: "1 Main"})
	require.NoError(t, err)

	beds := 3
	updated, err := svc.Update(ctx, p.ID, Patch{Beds: &beds})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Beds)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
