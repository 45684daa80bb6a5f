// metrics.go - Metrics collection for the zetherd node
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	Counter   MetricType = "counter"
	Gauge     MetricType = "gauge"
	Histogram MetricType = "histogram"
)

// histogramWindow bounds the samples kept per histogram.
const histogramWindow = 1000

// Metric represents a single metric
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// MetricsCollector manages metrics collection
type MetricsCollector struct {
	mu         sync.RWMutex
	metrics    map[string]*Metric
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:    make(map[string]*Metric),
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounter increments a counter metric
func (mc *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := makeKey(name, labels)
	mc.counters[key]++
	mc.updateMetric(key, name, Counter, float64(mc.counters[key]), labels)
}

// SetGauge sets a gauge metric value
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := makeKey(name, labels)
	mc.gauges[key] = value
	mc.updateMetric(key, name, Gauge, value, labels)
}

// RecordHistogram records a value in a histogram
func (mc *MetricsCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := makeKey(name, labels)
	h := append(mc.histograms[key], value)
	if len(h) > histogramWindow {
		h = h[len(h)-histogramWindow:]
	}
	mc.histograms[key] = h
	mc.updateMetric(key, name, Histogram, value, labels)
}

// GetMetric retrieves a metric by name and labels
func (mc *MetricsCollector) GetMetric(name string, labels map[string]string) *Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.metrics[makeKey(name, labels)]
}

// GetAllMetrics returns all collected metrics sorted by key
func (mc *MetricsCollector) GetAllMetrics() []*Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	keys := make([]string, 0, len(mc.metrics))
	for k := range mc.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	metrics := make([]*Metric, 0, len(keys))
	for _, k := range keys {
		metrics = append(metrics, mc.metrics[k])
	}
	return metrics
}

// HistogramSummary aggregates the retained samples of one histogram.
type HistogramSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
}

// Summary is a point-in-time copy of every metric.
type Summary struct {
	Counters   map[string]int64            `json:"counters"`
	Gauges     map[string]float64          `json:"gauges"`
	Histograms map[string]HistogramSummary `json:"histograms"`
}

// GetMetricsSummary returns a summary of all metrics
func (mc *MetricsCollector) GetMetricsSummary() Summary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	s := Summary{
		Counters:   make(map[string]int64, len(mc.counters)),
		Gauges:     make(map[string]float64, len(mc.gauges)),
		Histograms: make(map[string]HistogramSummary, len(mc.histograms)),
	}
	for k, v := range mc.counters {
		s.Counters[k] = v
	}
	for k, v := range mc.gauges {
		s.Gauges[k] = v
	}
	for k, values := range mc.histograms {
		if len(values) == 0 {
			continue
		}
		h := HistogramSummary{Count: len(values), Min: values[0], Max: values[0]}
		for _, v := range values {
			h.Min = min(h.Min, v)
			h.Max = max(h.Max, v)
			h.Sum += v
		}
		h.Avg = h.Sum / float64(h.Count)
		s.Histograms[k] = h
	}
	return s
}

// Reset resets all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics = make(map[string]*Metric)
	mc.counters = make(map[string]int64)
	mc.gauges = make(map[string]float64)
	mc.histograms = make(map[string][]float64)
}

// makeKey creates a unique key for a metric name and labels
func makeKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range names {
		fmt.Fprintf(&b, "{%s=%s}", k, labels[k])
	}
	return b.String()
}

func (mc *MetricsCollector) updateMetric(key, name string, metricType MetricType, value float64, labels map[string]string) {
	mc.metrics[key] = &Metric{
		Name:      name,
		Type:      metricType,
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now(),
	}
}

// snapshot is the on-disk form. Histograms keep their raw samples.
type snapshot struct {
	Metrics    map[string]*Metric   `json:"metrics"`
	Counters   map[string]int64     `json:"counters"`
	Gauges     map[string]float64   `json:"gauges"`
	Histograms map[string][]float64 `json:"histograms"`
}

// Save writes every metric to path so a later run can continue from it.
func (mc *MetricsCollector) Save(path string) error {
	mc.mu.RLock()
	data, err := json.MarshalIndent(snapshot{
		Metrics:    mc.metrics,
		Counters:   mc.counters,
		Gauges:     mc.gauges,
		Histograms: mc.histograms,
	}, "", "  ")
	mc.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load replaces the collected metrics with those saved at path. A missing
// file leaves the collector empty.
func (mc *MetricsCollector) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("metrics: decode %s: %w", path, err)
	}

	mc.Reset()
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for k, v := range s.Metrics {
		mc.metrics[k] = v
	}
	for k, v := range s.Counters {
		mc.counters[k] = v
	}
	for k, v := range s.Gauges {
		mc.gauges[k] = v
	}
	for k, v := range s.Histograms {
		mc.histograms[k] = v
	}
	return nil
}

// Predefined metric names
const (
	MetricRegistrationCount     = "registration_count"
	MetricDepositCount          = "deposit_count"
	MetricTransferCount         = "transfer_count"
	MetricProofGenerationTime   = "proof_generation_time"
	MetricProofVerificationTime = "proof_verification_time"
	MetricCircuitCompileTime    = "circuit_compile_time"
	MetricConstraintCount       = "constraint_count"
	MetricAccountCount          = "account_count"
	MetricErrorCount            = "error_count"
)

// Convenience methods for common metrics
func (mc *MetricsCollector) RecordRegistration() {
	mc.IncrementCounter(MetricRegistrationCount, nil)
}

func (mc *MetricsCollector) RecordDeposit() {
	mc.IncrementCounter(MetricDepositCount, nil)
}

func (mc *MetricsCollector) RecordTransfer(accountCount int) {
	mc.IncrementCounter(MetricTransferCount, nil)
	mc.SetGauge(MetricAccountCount, float64(accountCount), nil)
}

func (mc *MetricsCollector) RecordProofGeneration(scheme string, duration time.Duration) {
	mc.RecordHistogram(MetricProofGenerationTime, duration.Seconds(), map[string]string{"scheme": scheme})
}

func (mc *MetricsCollector) RecordProofVerification(scheme string, duration time.Duration) {
	mc.RecordHistogram(MetricProofVerificationTime, duration.Seconds(), map[string]string{"scheme": scheme})
}

func (mc *MetricsCollector) RecordCircuitCompile(scheme string, duration time.Duration, constraints int) {
	labels := map[string]string{"scheme": scheme}
	mc.RecordHistogram(MetricCircuitCompileTime, duration.Seconds(), labels)
	mc.SetGauge(MetricConstraintCount, float64(constraints), labels)
}

func (mc *MetricsCollector) RecordError(errorType string) {
	mc.IncrementCounter(MetricErrorCount, map[string]string{"type": errorType})
}
