package utilities

import (
	"io"
	"sort"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal/data"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const metricsNamespace string = "employees_api"

// MetricsFormat is the content type of the output of WriteMetrics
var MetricsFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

func ptr[T any](v T) *T {
	return &v
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func labeledFamily[T int | int64](name, help, label string, metricType dto.MetricType, values map[string]T, divisor float64) *dto.MetricFamily {
	family := &dto.MetricFamily{
		Name: ptr(metricsNamespace + "_" + name),
		Help: ptr(help),
		Type: metricType.Enum(),
	}
	for _, key := range sortedKeys(values) {
		value := float64(values[key]) / divisor
		metric := &dto.Metric{
			Label: []*dto.LabelPair{{Name: ptr(label), Value: ptr(key)}},
		}
		switch metricType {
		case dto.MetricType_COUNTER:
			metric.Counter = &dto.Counter{Value: ptr(value)}
		default:
			metric.Gauge = &dto.Gauge{Value: ptr(value)}
		}
		family.Metric = append(family.Metric, metric)
	}
	return family
}

// WriteMetrics writes cache counters, endpoint timers and the number of
// stored employees in the prometheus text exposition format
func WriteMetrics(writer io.Writer, counters *data.CacheCounters, timers *data.Timers, employeeCount int) error {
	const nanoseconds float64 = float64(time.Second)

	families := []*dto.MetricFamily{
		{
			Name: ptr(metricsNamespace + "_employees"),
			Help: ptr("Number of stored employees."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{
				{Gauge: &dto.Gauge{Value: ptr(float64(employeeCount))}},
			},
		},
	}
	if counters != nil {
		families = append(families,
			labeledFamily("cache_hits_total", "Number of cache hits.", "key",
				dto.MetricType_COUNTER, counters.CounterHits, 1),
			labeledFamily("cache_misses_total", "Number of cache misses.", "key",
				dto.MetricType_COUNTER, counters.CounterMisses, 1),
		)
	}
	if timers != nil {
		families = append(families,
			labeledFamily("endpoint_seconds_total", "Total time spent per endpoint.", "endpoint",
				dto.MetricType_GAUGE, timers.Totals, nanoseconds),
			labeledFamily("endpoint_seconds_average", "Average time spent per endpoint.", "endpoint",
				dto.MetricType_GAUGE, timers.Averages, nanoseconds),
		)
	}
	encoder := expfmt.NewEncoder(writer, MetricsFormat)
	for _, family := range families {
		//KIM: the text format refuses families without metrics
		if len(family.Metric) == 0 {
			continue
		}
		if err := encoder.Encode(family); err != nil {
			return err
		}
	}
	return nil
}
