package ntpsync

import (
	"math"
	"math/rand"
	"testing"
)

func TestEstimate(t *testing.T) {
	corrected, delay := Estimate(1000.0, 1000.5, 1000.6, 1001.0)
	if math.Abs(delay-0.9) > 1e-9 {
		t.Errorf("delay=%f", delay)
	}
	if math.Abs(corrected-1001.05) > 1e-9 {
		t.Errorf("corrected=%f", corrected)
	}
}

func TestEstimateNegativeDelay(t *testing.T) {
	// server claims more processing time than the whole round trip
	corrected, delay := Estimate(100, 100.1, 101.1, 100.5)
	if math.Abs(delay-(-0.5)) > 1e-9 {
		t.Fatalf("delay=%f", delay)
	}
	if math.Abs(corrected-100.85) > 1e-9 {
		t.Fatalf("corrected=%f", corrected)
	}
}

func TestEstimateBounds(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		t1 := 1.7e9 + r.Float64()*1e6
		t4 := t1 + r.Float64()*2
		t2 := t1 + r.Float64()*(t4-t1)
		t3 := t2 + r.Float64()*(t4-t2)

		corrected, delay := Estimate(t1, t2, t3, t4)
		if delay < -1e-6 {
			t.Fatalf("delay=%f for %f %f %f %f", delay, t1, t2, t3, t4)
		}
		off := corrected - t1
		if off < -1e-6 || off > t4-t1+1e-6 {
			t.Fatalf("corrected-t1=%f outside [0, %f]", off, t4-t1)
		}
	}
}
