package safepoint_test

import (
	"errors"
	"testing"
	"time"

	"veld/internal/safepoint"
)

func TestRegisterEnforcesCapacity(t *testing.T) {
	reg := safepoint.NewRegistry(2)
	if _, err := reg.Register("one"); err != nil {
		t.Fatalf("Register one: %v", err)
	}
	if _, err := reg.Register("two"); err != nil {
		t.Fatalf("Register two: %v", err)
	}
	if _, err := reg.Register("three"); !errors.Is(err, safepoint.ErrInventoryFull) {
		t.Fatalf("expected ErrInventoryFull, got %v", err)
	}
	if reg.ThreadCount() != 2 {
		t.Fatalf("ThreadCount = %d, want 2", reg.ThreadCount())
	}
}

func TestDeregisterFreesSlot(t *testing.T) {
	reg := safepoint.NewRegistry(1)
	thread, err := reg.Register("tenant")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	reg.Deregister(thread)
	if _, err := reg.Register("successor"); err != nil {
		t.Fatalf("Register after Deregister: %v", err)
	}
}

func TestStopTheWorldWaitsForBlockedThreads(t *testing.T) {
	reg := safepoint.NewRegistry(4)
	thread, err := reg.Register("worker")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	paused := make(chan struct{})
	go func() {
		reg.StopTheWorld()
		close(paused)
	}()

	// The pause cannot complete while the thread is running.
	select {
	case <-paused:
		t.Fatal("pause completed with a running thread")
	case <-time.After(50 * time.Millisecond):
	}

	region := thread.EnterBlocked()
	select {
	case <-paused:
	case <-time.After(5 * time.Second):
		t.Fatal("pause never completed after thread blocked")
	}
	if !reg.Paused() {
		t.Fatal("registry does not report pause in progress")
	}

	// Leaving the blocked region parks until the world resumes.
	exited := make(chan struct{})
	go func() {
		region.Exit()
		close(exited)
	}()
	select {
	case <-exited:
		t.Fatal("blocked region exited during pause")
	case <-time.After(50 * time.Millisecond):
	}

	reg.Resume()
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("blocked region never exited after resume")
	}
	if reg.Paused() {
		t.Fatal("registry still reports pause after resume")
	}
}

func TestPollParksDuringPause(t *testing.T) {
	reg := safepoint.NewRegistry(4)
	thread, err := reg.Register("poller")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Without a pause in progress Poll returns immediately.
	thread.Poll()

	paused := make(chan struct{})
	go func() {
		reg.StopTheWorld()
		close(paused)
	}()

	deadline := time.After(5 * time.Second)
	for !reg.Paused() {
		select {
		case <-deadline:
			t.Fatal("pause never initiated")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Polling satisfies the pause and parks the thread until Resume.
	polled := make(chan struct{})
	go func() {
		thread.Poll()
		close(polled)
	}()

	select {
	case <-paused:
	case <-time.After(5 * time.Second):
		t.Fatal("pause never completed after poll")
	}
	select {
	case <-polled:
		t.Fatal("poll returned while the world was stopped")
	case <-time.After(50 * time.Millisecond):
	}

	reg.Resume()
	select {
	case <-polled:
	case <-time.After(5 * time.Second):
		t.Fatal("poll never returned after resume")
	}
}

func TestBlockedRegionExitIsIdempotent(t *testing.T) {
	reg := safepoint.NewRegistry(4)
	thread, err := reg.Register("worker")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	region := thread.EnterBlocked()
	region.Exit()
	region.Exit()

	// The thread is running again, so a pause must wait for it.
	paused := make(chan struct{})
	go func() {
		reg.StopTheWorld()
		close(paused)
	}()
	select {
	case <-paused:
		t.Fatal("pause completed with a running thread")
	case <-time.After(50 * time.Millisecond):
	}

	next := thread.EnterBlocked()
	select {
	case <-paused:
	case <-time.After(5 * time.Second):
		t.Fatal("pause never completed")
	}
	reg.Resume()
	next.Exit()
}
