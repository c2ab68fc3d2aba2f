package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerAggregatesHealthy(t *testing.T) {
	c := NewChecker(0)
	c.Register("database", DatabaseCheck(func(ctx context.Context) error { return nil }))
	c.Register("module", ModuleCheck(func(out []byte) error { return nil }))

	health := c.GetSystemHealth(context.Background())
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Len(t, health.Checks, 2)
}

func TestCheckerReportsUnhealthyOnFailure(t *testing.T) {
	c := NewChecker(0)
	c.Register("database", DatabaseCheck(func(ctx context.Context) error { return errors.New("connection refused") }))

	health := c.GetSystemHealth(context.Background())
	assert.Equal(t, StatusUnhealthy, health.Status)
	assert.Equal(t, StatusUnhealthy, health.Checks["database"].Status)
}

func TestDatabaseCheckRequiresPingFunction(t *testing.T) {
	check := DatabaseCheck(nil)
	assert.Error(t, check(context.Background()))
}
