package batch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName は計測スコープ名です。
const meterName = "github.com/shouni/go-voice-batch"

const (
	statusSuccess = "success"
	statusError   = "error"
)

// taskDurationBuckets は1タスク (合成+変換+書き込み) の所要時間 (秒) 向けの境界です。
var taskDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Metrics はバッチ処理の計測器をまとめたものです。
type Metrics struct {
	// Tasks は処理済みタスク数です。attribute.String("status", "success"|"error") と共に記録します。
	Tasks metric.Int64Counter
	// TaskDuration は1タスクの所要時間です。
	TaskDuration metric.Float64Histogram
}

// NewMetrics は mp から計測器を作成します。
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Tasks, err = m.Int64Counter("voicebatch.tasks",
		metric.WithDescription("Synthesis tasks processed by outcome."),
	); err != nil {
		return nil, err
	}
	if met.TaskDuration, err = m.Float64Histogram("voicebatch.task.duration",
		metric.WithDescription("Latency of one synthesis task including conversion and file write."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(taskDurationBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// noopMetrics は計測を行わない Metrics を返します。
func noopMetrics() *Metrics {
	met, _ := NewMetrics(noop.NewMeterProvider())
	return met
}

func (m *Metrics) observe(ctx context.Context, elapsed time.Duration, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Tasks.Add(ctx, 1, attrs)
	m.TaskDuration.Record(ctx, elapsed.Seconds(), attrs)
}
