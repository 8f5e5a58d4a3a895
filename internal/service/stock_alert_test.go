package service_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahmat91/Ecommerce-ALX/internal/metrics"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

func TestStockAlertHandler(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := service.NewStockAlertHandler(5, m)
	ctx := context.Background()

	require.NoError(t, h.Handle(ctx, []byte(`{"product_id":"a","new_stock":20,"reason":"admin_increase"}`)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LowStock))

	require.NoError(t, h.Handle(ctx, []byte(`{"product_id":"a","new_stock":5,"reason":"checkout"}`)))
	require.NoError(t, h.Handle(ctx, []byte(`{"product_id":"b","new_stock":0,"reason":"admin_decrease"}`)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LowStock))

	assert.Error(t, h.Handle(ctx, []byte(`not json`)))
	assert.Error(t, h.Handle(ctx, []byte(`{"new_stock":1}`)))
}
