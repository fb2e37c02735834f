package utils

import (
	"testing"
	"time"
)

func TestPacerEnforcesFloor(t *testing.T) {
	interval := 50 * time.Millisecond
	p := NewPacer(interval)

	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		p.Wait()
		timestamps = append(timestamps, time.Now())
	}

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < interval {
			t.Errorf("gap between request %d and %d: %v < floor %v", i-1, i, gap, interval)
		}
	}
}

func TestPacerFirstCallImmediate(t *testing.T) {
	p := NewPacer(time.Second)

	start := time.Now()
	p.Wait()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait should not block, took %v", elapsed)
	}
}

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://streeteasy.com/rental/1") {
		t.Error("first Add should return true")
	}
	if s.Add("https://streeteasy.com/rental/1") {
		t.Error("second Add of same URL should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}
