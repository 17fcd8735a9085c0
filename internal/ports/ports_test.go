package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
)

// mockChecker implements HealthChecker for testing.
type mockChecker struct {
	name string
	err  error
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) error {
	return m.err
}

// TestNewHealthRegistry verifies that a new registry is created with empty checkers.
func TestNewHealthRegistry(t *testing.T) {
	registry := NewHealthRegistry()

	require.NotNil(t, registry)
	assert.Empty(t, registry.Names())
	assert.Equal(t, DefaultCheckTimeout, registry.timeout)
}

// TestRegister_Success verifies that a checker can be registered successfully.
func TestRegister_Success(t *testing.T) {
	registry := NewHealthRegistry()
	checker := &mockChecker{name: "asynccontext"}

	err := registry.Register(checker)

	require.NoError(t, err)
	assert.Equal(t, []string{"asynccontext"}, registry.Names())
}

// TestRegister_DuplicateName verifies that registering duplicate checker names returns an error.
func TestRegister_DuplicateName(t *testing.T) {
	registry := NewHealthRegistry()
	checker1 := &mockChecker{name: "asynccontext"}
	checker2 := &mockChecker{name: "asynccontext"}

	err := registry.Register(checker1)
	require.NoError(t, err)

	err = registry.Register(checker2)

	require.Error(t, err)
	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "asynccontext")
	assert.Len(t, registry.Names(), 1)
}

// TestCheckAll_NoCheckers verifies that an empty registry returns healthy status.
func TestCheckAll_NoCheckers(t *testing.T) {
	registry := NewHealthRegistry()
	ctx := context.Background()

	result := registry.CheckAll(ctx)

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.NotNil(t, result.Checks)
	assert.Empty(t, result.Checks)
	assert.False(t, result.Timestamp.IsZero())
}

// TestCheckAll_AllHealthy verifies that multiple healthy checkers result in healthy status.
func TestCheckAll_AllHealthy(t *testing.T) {
	registry := NewHealthRegistry()
	checker1 := &mockChecker{name: "asynccontext", err: nil}
	checker2 := &mockChecker{name: "store", err: nil}
	checker3 := &mockChecker{name: "queue", err: nil}

	require.NoError(t, registry.Register(checker1))
	require.NoError(t, registry.Register(checker2))
	require.NoError(t, registry.Register(checker3))

	ctx := context.Background()
	result := registry.CheckAll(ctx)

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Len(t, result.Checks, 3)

	// Verify all checks are healthy
	assert.Equal(t, HealthStatusHealthy, result.Checks["asynccontext"].Status)
	assert.Equal(t, HealthStatusHealthy, result.Checks["store"].Status)
	assert.Equal(t, HealthStatusHealthy, result.Checks["queue"].Status)

	// Verify no error messages
	assert.Empty(t, result.Checks["asynccontext"].Message)
	assert.Empty(t, result.Checks["store"].Message)
	assert.Empty(t, result.Checks["queue"].Message)
}

// TestCheckAll_OneUnhealthy verifies that one failing checker makes the overall result unhealthy.
func TestCheckAll_OneUnhealthy(t *testing.T) {
	registry := NewHealthRegistry()
	checker1 := &mockChecker{name: "asynccontext", err: nil}
	checker2 := &mockChecker{name: "store", err: errors.New("connection timeout")}
	checker3 := &mockChecker{name: "queue", err: nil}

	require.NoError(t, registry.Register(checker1))
	require.NoError(t, registry.Register(checker2))
	require.NoError(t, registry.Register(checker3))

	ctx := context.Background()
	result := registry.CheckAll(ctx)

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Len(t, result.Checks, 3)

	// Verify individual statuses
	assert.Equal(t, HealthStatusHealthy, result.Checks["asynccontext"].Status)
	assert.Equal(t, HealthStatusUnhealthy, result.Checks["store"].Status)
	assert.Equal(t, HealthStatusHealthy, result.Checks["queue"].Status)

	// Verify error message is captured
	assert.Empty(t, result.Checks["asynccontext"].Message)
	assert.Equal(t, "connection timeout", result.Checks["store"].Message)
	assert.Empty(t, result.Checks["queue"].Message)
}

// contextAwareChecker implements HealthChecker that respects context cancellation.
type contextAwareChecker struct {
	name string
}

func (c *contextAwareChecker) Name() string {
	return c.name
}

func (c *contextAwareChecker) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// TestCheckAll_ContextCancelled verifies that the health check respects context cancellation.
func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry()
	checker := &contextAwareChecker{name: "slow-service"}

	require.NoError(t, registry.Register(checker))

	// Create a context that's already cancelled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Len(t, result.Checks, 1)
	assert.Equal(t, HealthStatusUnhealthy, result.Checks["slow-service"].Status)
	assert.Contains(t, result.Checks["slow-service"].Message, "context canceled")
}

// TestCheckAll_Timeout verifies that a slow check is cut off by the per-check timeout.
func TestCheckAll_Timeout(t *testing.T) {
	registry := NewHealthRegistryWithTimeout(10 * time.Millisecond)
	require.NoError(t, registry.Register(&contextAwareChecker{name: "slow-service"}))

	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow-service"].Message, "deadline exceeded")
}

// storeChecker fails unless the caller's async context is visible to the check.
type storeChecker struct {
	store *asynccontext.Accessor
}

func (c *storeChecker) Name() string {
	return "store-visible"
}

func (c *storeChecker) Check(ctx context.Context) error {
	if c.store.Get(ctx, "requestId") != "req-42" {
		return errors.New("request store not visible")
	}

	return nil
}

// TestCheckAll_ChecksSeeCallerStore verifies that checks run in the caller's async context.
func TestCheckAll_ChecksSeeCallerStore(t *testing.T) {
	acc, run := asynccontext.New("request", nil, func(context.Context, error) {})
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&storeChecker{store: acc}))

	err := run(context.Background(), asynccontext.Values{"requestId": "req-42"}, func(ctx context.Context) error {
		result := registry.CheckAll(ctx)
		assert.Equal(t, HealthStatusHealthy, result.Status, "%+v", result.Checks["store-visible"])
		return nil
	})
	require.NoError(t, err)

	outside := registry.CheckAll(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, outside.Status)
}
