package locking

import (
	"sync"
	"testing"
	"time"
)

func TestAcquireReadCompatibleWithRead(t *testing.T) {
	m := NewManager(time.Second)
	if err := m.AcquireRead(1, "T"); err != nil {
		t.Fatalf("txn 1 read failed: %v", err)
	}
	if err := m.AcquireRead(2, "T"); err != nil {
		t.Fatalf("txn 2 read should be compatible with txn 1's read: %v", err)
	}
}

func TestAcquireWriteBlocksOtherWrite(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	if err := m.AcquireWrite(1, "T"); err != nil {
		t.Fatalf("txn 1 write failed: %v", err)
	}
	err := m.AcquireWrite(2, "T")
	if err != ErrTimeout {
		t.Fatalf("expected ErrTimeout for a conflicting write, got %v", err)
	}
}

func TestAcquireWriteReentrantIsNoop(t *testing.T) {
	m := NewManager(time.Second)
	if err := m.AcquireWrite(1, "T"); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := m.AcquireWrite(1, "T"); err != nil {
		t.Fatalf("reacquiring the same txn/mode should be a no-op, got %v", err)
	}
}

func TestAcquireRelatedImpliedByExclusiveHold(t *testing.T) {
	m := NewManager(time.Second)
	if err := m.AcquireWrite(1, "T"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := m.AcquireRelated(1, "T"); err != nil {
		t.Fatalf("same txn's Related request should be implied by its Exclusive hold, got %v", err)
	}
}

func TestReleaseAllDropsEveryLock(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	if err := m.AcquireWrite(1, "A"); err != nil {
		t.Fatalf("write A failed: %v", err)
	}
	if err := m.AcquireWrite(1, "B"); err != nil {
		t.Fatalf("write B failed: %v", err)
	}
	m.ReleaseAll(1)

	if err := m.AcquireWrite(2, "A"); err != nil {
		t.Fatalf("expected txn 2 to acquire A after txn 1 released everything: %v", err)
	}
	if err := m.AcquireWrite(2, "B"); err != nil {
		t.Fatalf("expected txn 2 to acquire B after txn 1 released everything: %v", err)
	}
}

func TestDeadlockDetected(t *testing.T) {
	m := NewManager(2 * time.Second)
	if err := m.AcquireWrite(1, "A"); err != nil {
		t.Fatalf("txn1 write A failed: %v", err)
	}
	if err := m.AcquireWrite(2, "B"); err != nil {
		t.Fatalf("txn2 write B failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = m.AcquireWrite(1, "B")
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		errs[1] = m.AcquireWrite(2, "A")
	}()
	wg.Wait()

	sawDeadlock := errs[0] == ErrDeadlock || errs[1] == ErrDeadlock
	if !sawDeadlock {
		t.Fatalf("expected at least one side of the cycle to see ErrDeadlock, got %v and %v", errs[0], errs[1])
	}
}

func TestReleaseUnheldLockErrors(t *testing.T) {
	m := NewManager(time.Second)
	if err := m.ReleaseWrite(1, "T"); err == nil {
		t.Fatal("expected an error releasing a lock never held")
	}
}
