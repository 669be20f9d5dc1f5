package game

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Garsondee/Tank-Arena/internal/game"

// matchMetrics holds the instruments recorded by the tick loop. With no SDK
// installed the global provider hands out no-op instruments.
type matchMetrics struct {
	ticks      metric.Int64Counter
	intents    metric.Int64Counter
	replans    metric.Int64Counter
	blocked    metric.Int64Counter
	superseded metric.Int64Counter
	intakeSize metric.Int64ObservableGauge
	reg        metric.Registration
}

func newMatchMetrics(mp metric.MeterProvider, intake *Intake) (*matchMetrics, error) {
	m := mp.Meter(instrumentationName)
	mm := &matchMetrics{}
	var err error

	if mm.ticks, err = m.Int64Counter("tankarena.ticks",
		metric.WithDescription("Simulation ticks stepped")); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if mm.intents, err = m.Int64Counter("tankarena.intents",
		metric.WithDescription("Intents emitted by executors")); err != nil {
		return nil, fmt.Errorf("creating intents counter: %w", err)
	}
	if mm.replans, err = m.Int64Counter("tankarena.replans",
		metric.WithDescription("Plans submitted by AI controllers")); err != nil {
		return nil, fmt.Errorf("creating replans counter: %w", err)
	}
	if mm.blocked, err = m.Int64Counter("tankarena.executor.blocked",
		metric.WithDescription("Executor transitions into the blocked state")); err != nil {
		return nil, fmt.Errorf("creating blocked counter: %w", err)
	}
	if mm.superseded, err = m.Int64Counter("tankarena.intake.superseded",
		metric.WithDescription("Submissions replaced by a newer one before their tick")); err != nil {
		return nil, fmt.Errorf("creating superseded counter: %w", err)
	}
	if mm.intakeSize, err = m.Int64ObservableGauge("tankarena.intake.size",
		metric.WithDescription("Submissions waiting for the next tick")); err != nil {
		return nil, fmt.Errorf("creating intake gauge: %w", err)
	}
	if mm.reg, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(mm.intakeSize, int64(intake.Len()))
		return nil
	}, mm.intakeSize); err != nil {
		return nil, fmt.Errorf("registering intake callback: %w", err)
	}
	return mm, nil
}

// close drops the intake callback so a finished match is not observed.
func (mm *matchMetrics) close(log zerolog.Logger) {
	if mm.reg == nil {
		return
	}
	if err := mm.reg.Unregister(); err != nil {
		log.Warn().Err(err).Msg("unregistering intake callback")
	}
	mm.reg = nil
}

func (mm *matchMetrics) recordIntents(ctx context.Context, intents []Intent) {
	var counts [3]int64
	for _, in := range intents {
		if int(in.Kind) < len(counts) {
			counts[in.Kind]++
		}
	}
	for k, n := range counts {
		if n > 0 {
			mm.intents.Add(ctx, n, metric.WithAttributes(attribute.String("kind", IntentKind(k).String())))
		}
	}
}
