package goLink

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricFeedPush)
	}
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricFeedPush)
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricFeedPush)
		}
	})
}

func BenchmarkStoreSave(b *testing.B) {
	for _, layout := range testLayouts {
		b.Run(layout.String(), func(b *testing.B) {
			cfg := DefaultConfig()
			cfg.Storage.Layout = layout
			s, err := New().WithConfig(cfg).WithLogger(quietLogger()).Build()
			if err != nil {
				b.Fatalf("build: %v", err)
			}
			defer s.Close()

			ctx := context.Background()
			ids := make([]string, 64)
			for i := range ids {
				ids[i] = fmt.Sprintf("s%02d", i)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := s.Save(ctx, ids[i%len(ids)], "secret", WithURL(urlA)); err != nil {
					b.Fatalf("save: %v", err)
				}
			}
		})
	}
}
