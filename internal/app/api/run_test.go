package api

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutmemory "github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/memory"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
)

func TestBuildStores_FallsBackToMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stores, cleanup := BuildStores(context.Background(), Config{}, logger)
	defer cleanup()

	assert.IsType(t, &checkoutmemory.Repository{}, stores.Repository)
	assert.IsType(t, &checkoutmemory.IdempotencyStore{}, stores.Idempotency)
}

func TestNewObservedService_StagesAgainstRepository(t *testing.T) {
	stores := Stores{Repository: checkoutmemory.NewRepository(), Idempotency: checkoutmemory.NewIdempotencyStore()}
	service := NewObservedService(stores, nil)
	req := &domain.StagedCheckoutRequest{UserName: "alice", PID: 1, IDChoices: []int64{3}}

	staged, err := service.StageRequest(context.Background(), req, "retry-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), staged.ID)

	replayed, err := service.StageRequest(context.Background(), req, "retry-1")
	require.NoError(t, err)
	assert.Equal(t, staged, replayed)
}

func TestConnectTemporalClient_Disabled(t *testing.T) {
	_, err := ConnectTemporalClient(Config{TemporalDisabled: true}, nil)
	assert.Error(t, err)
}
