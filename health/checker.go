// Copyright (C) 2026 zk-passport
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package health provides a small named-check registry for the operator
// /healthz endpoint: the database pool and the secure module RNG each
// register a check, and GetSystemHealth aggregates them into one status.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zk-passport/tee-prover-server/internal/logger"
)

// Status is a health check's outcome.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is a single named check's outcome.
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Check is a single fallible probe.
type Check func(ctx context.Context) error

// Checker manages a set of named checks, each bounded by a shared timeout
// and cached briefly so a request storm does not hammer the database pool.
type Checker struct {
	mu       sync.RWMutex
	checks   map[string]Check
	timeout  time.Duration
	cacheTTL time.Duration
	cache    map[string]*cachedResult
}

type cachedResult struct {
	result    *CheckResult
	expiresAt time.Time
}

// NewChecker constructs a Checker with the given per-check timeout (5s if
// zero) and a 10s result cache.
func NewChecker(timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:   make(map[string]Check),
		timeout:  timeout,
		cacheTTL: 10 * time.Second,
		cache:    make(map[string]*cachedResult),
	}
}

// Register adds a named check, replacing any existing check of the same name.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

func (c *Checker) run(ctx context.Context, name string, check Check) *CheckResult {
	if cached := c.getCached(name); cached != nil {
		return cached
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := check(checkCtx)
	duration := time.Since(start)

	result := &CheckResult{Name: name, Timestamp: time.Now(), Duration: duration}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
		logger.Warn("health check failed", logger.String("name", name), logger.Error(err))
	} else {
		result.Status = StatusHealthy
	}

	c.cacheResult(name, result)
	return result
}

// CheckAll runs every registered check concurrently.
func (c *Checker) CheckAll(ctx context.Context) map[string]*CheckResult {
	c.mu.RLock()
	snapshot := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		snapshot[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]*CheckResult, len(snapshot))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range snapshot {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			result := c.run(ctx, name, check)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, check)
	}

	wg.Wait()
	return results
}

// SystemHealth is the aggregated response served at /healthz.
type SystemHealth struct {
	Status    Status                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Checks    map[string]*CheckResult `json:"checks"`
}

// GetSystemHealth runs every registered check and rolls the results up into
// one overall Status: unhealthy if any check failed, healthy otherwise.
func (c *Checker) GetSystemHealth(ctx context.Context) *SystemHealth {
	checks := c.CheckAll(ctx)

	status := StatusHealthy
	for _, result := range checks {
		if result.Status == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}

	return &SystemHealth{Status: status, Timestamp: time.Now(), Checks: checks}
}

func (c *Checker) getCached(name string) *CheckResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.cache[name]
	if !ok || time.Now().After(cached.expiresAt) {
		return nil
	}
	return cached.result
}

func (c *Checker) cacheResult(name string, result *CheckResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[name] = &cachedResult{result: result, expiresAt: time.Now().Add(c.cacheTTL)}
}

// DatabaseCheck wraps a pool ping function (e.g. postgres.Gateway.Ping) as
// a named Check.
func DatabaseCheck(ping func(context.Context) error) Check {
	return func(ctx context.Context) error {
		if ping == nil {
			return fmt.Errorf("database ping function not configured")
		}
		return ping(ctx)
	}
}

// ModuleCheck wraps the secure module's RNG as a liveness probe: if it
// cannot fill a small buffer, the module adapter is unusable.
func ModuleCheck(random func([]byte) error) Check {
	return func(ctx context.Context) error {
		if random == nil {
			return fmt.Errorf("secure module random function not configured")
		}
		return random(make([]byte, 16))
	}
}
