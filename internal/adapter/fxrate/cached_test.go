package fxrate_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jive/ledgerengine/internal/adapter/fxrate"
	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/infrastructure/metrics"
	"github.com/jive/ledgerengine/internal/usecase/mocks"
)

func TestCachedProvider_MemoisesPerDay(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockRateProvider(ctrl)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	p := fxrate.NewCachedProvider(next, time.Hour, m)

	morning := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 5, 4, 20, 0, 0, 0, time.UTC)
	nextDay := morning.Add(24 * time.Hour)

	next.EXPECT().Rate(gomock.Any(), domain.USD, domain.EUR, morning).Return(decimal.RequireFromString("0.92"), nil).Times(1)
	next.EXPECT().Rate(gomock.Any(), domain.USD, domain.EUR, nextDay).Return(decimal.RequireFromString("0.93"), nil).Times(1)

	rate, err := p.Rate(context.Background(), domain.USD, domain.EUR, morning)
	require.NoError(t, err)
	assert.Equal(t, "0.92", rate.String())

	rate, err = p.Rate(context.Background(), domain.USD, domain.EUR, evening)
	require.NoError(t, err)
	assert.Equal(t, "0.92", rate.String())

	rate, err = p.Rate(context.Background(), domain.USD, domain.EUR, nextDay)
	require.NoError(t, err)
	assert.Equal(t, "0.93", rate.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOperations.WithLabelValues("fx_rate", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheOperations.WithLabelValues("fx_rate", "miss")))
}

func TestCachedProvider_DoesNotCacheFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockRateProvider(ctrl)
	p := fxrate.NewCachedProvider(next, time.Hour, nil)
	date := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	gomock.InOrder(
		next.EXPECT().Rate(gomock.Any(), domain.USD, domain.JPY, date).Return(decimal.Zero, domain.ErrFxRateUnavailable),
		next.EXPECT().Rate(gomock.Any(), domain.USD, domain.JPY, date).Return(decimal.RequireFromString("151.2"), nil),
	)

	_, err := p.Rate(context.Background(), domain.USD, domain.JPY, date)
	require.ErrorIs(t, err, domain.ErrFxRateUnavailable)

	rate, err := p.Rate(context.Background(), domain.USD, domain.JPY, date)
	require.NoError(t, err)
	assert.Equal(t, "151.2", rate.String())
}

func TestCachedProvider_Flush(t *testing.T) {
	static := fxrate.NewStaticProvider()
	require.NoError(t, static.Set(domain.USD, domain.EUR, decimal.RequireFromString("0.92")))
	p := fxrate.NewCachedProvider(static, time.Hour, nil)

	_, err := p.Rate(context.Background(), domain.USD, domain.EUR, time.Now())
	require.NoError(t, err)

	require.NoError(t, static.Set(domain.USD, domain.EUR, decimal.RequireFromString("0.95")))
	rate, err := p.Rate(context.Background(), domain.USD, domain.EUR, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0.92", rate.String())

	p.Flush()
	rate, err = p.Rate(context.Background(), domain.USD, domain.EUR, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0.95", rate.String())
}
