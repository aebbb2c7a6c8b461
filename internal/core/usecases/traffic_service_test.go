package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/usecases"
)

func TestTrafficService_Sample_Deterministic(t *testing.T) {
	cases := []struct {
		rand float64
		want float64
	}{
		{0, 1.00},
		{0.5, 1.60},
		{0.999999, 2.20}, // rounds up to the ceiling
	}
	for _, tc := range cases {
		svc := usecases.NewTrafficService(fixedRand{tc.rand}, 0)
		sample, err := svc.Sample(context.Background(), domain.GeoPoint{Lat: 12.97, Lon: 77.59})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(sample.TrafficFactor-tc.want) > 1e-12 {
			t.Errorf("rand %.6f: factor %.4f, want %.2f", tc.rand, sample.TrafficFactor, tc.want)
		}
	}
}

func TestTrafficService_Sample_RangeAndRounding(t *testing.T) {
	svc := usecases.NewTrafficService(usecases.SystemRand{}, 0)

	for i := 0; i < 200; i++ {
		sample, err := svc.Sample(context.Background(), domain.GeoPoint{Lat: 12.97, Lon: 77.59})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f := sample.TrafficFactor
		if f < 1.00 || f > 2.20 {
			t.Fatalf("factor %.4f outside [1.00, 2.20]", f)
		}
		if math.Abs(f*100-math.Round(f*100)) > 1e-9 {
			t.Fatalf("factor %.6f not rounded to two decimals", f)
		}
	}
}

func TestTrafficService_Sample_InvalidPoint(t *testing.T) {
	svc := usecases.NewTrafficService(fixedRand{0.5}, 0)
	_, err := svc.Sample(context.Background(), domain.GeoPoint{Lat: 95, Lon: 0})
	if !errors.Is(err, domain.ErrInvalidGeoPoint) {
		t.Errorf("got %v, want ErrInvalidGeoPoint", err)
	}
}

func TestTrafficService_Sample_Cancelled(t *testing.T) {
	svc := usecases.NewTrafficService(fixedRand{0.5}, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Sample(ctx, domain.GeoPoint{Lat: 12.97, Lon: 77.59})
	if !errors.Is(err, domain.ErrComputationFailed) {
		t.Errorf("got %v, want ErrComputationFailed", err)
	}
}
