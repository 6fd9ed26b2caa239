package db

import (
	"testing"
)

func TestPoolStats_Fields(t *testing.T) {
	stats := &PoolStats{
		TotalConns:      8,
		IdleConns:       3,
		AcquiredConns:   5,
		MaxConns:        16,
		AcquireCount:    42,
		AcquireDuration: "1.2s",
		Healthy:         true,
	}

	if stats.TotalConns != 8 {
		t.Errorf("expected TotalConns 8, got %d", stats.TotalConns)
	}
	if stats.IdleConns != 3 {
		t.Errorf("expected IdleConns 3, got %d", stats.IdleConns)
	}
	if stats.AcquiredConns != 5 {
		t.Errorf("expected AcquiredConns 5, got %d", stats.AcquiredConns)
	}
	if stats.AcquireCount != 42 {
		t.Errorf("expected AcquireCount 42, got %d", stats.AcquireCount)
	}
	if !stats.Healthy {
		t.Error("expected Healthy to be true")
	}
}

func TestPoolStats_UnhealthyWhenNoConns(t *testing.T) {
	stats := &PoolStats{
		TotalConns:      0,
		MaxConns:        16,
		AcquireDuration: "0s",
		Healthy:         false,
	}

	if stats.Healthy {
		t.Error("expected Healthy to be false when TotalConns is 0")
	}
}
