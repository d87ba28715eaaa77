package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitUntil_ReturnsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := WaitUntil(context.Background(), time.Hour, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestWaitUntil_PollsUntilDone(t *testing.T) {
	calls := 0
	err := WaitUntil(context.Background(), time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestWaitUntil_PropagatesConditionError(t *testing.T) {
	boom := errors.New("boom")
	err := WaitUntil(context.Background(), time.Millisecond, func(context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected condition error, got %v", err)
	}
}

func TestWaitUntil_StopsOnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := WaitUntil(ctx, 5*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}
