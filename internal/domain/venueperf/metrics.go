package venueperf

import (
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	crerr "github.com/cockroachdb/errors"
)

type Metric struct {
	Key   string
	Value float64
}

// Metrics is an ordered key/value bag. It serializes as a JSON object whose
// keys keep provider order.
type Metrics []Metric

func (m Metrics) Get(key string) (float64, bool) {
	for _, metric := range m {
		if metric.Key == key {
			return metric.Value, true
		}
	}
	return 0, false
}

func (m Metrics) Keys() []string {
	out := make([]string, 0, len(m))
	for _, metric := range m {
		out = append(out, metric.Key)
	}
	return out
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 16+len(m)*24)
	buf = append(buf, '{')
	for i, metric := range m {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := sonic.Marshal(metric.Key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = strconv.AppendFloat(buf, metric.Value, 'f', -1, 64)
	}
	buf = append(buf, '}')
	return buf, nil
}

func (m *Metrics) UnmarshalJSON(raw []byte) error {
	parsed, _, err := ParseMetrics(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMetrics walks a provider stat object in document order. Numeric values
// and numeric strings (".300", "1.050") are kept; anything else is skipped and
// its key returned in skipped.
func ParseMetrics(raw []byte) (metrics Metrics, skipped []string, err error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Metrics{}, nil, nil
	}

	root, err := sonic.GetFromString(trimmed)
	if err != nil {
		return nil, nil, crerr.Wrap(err, "parse metrics")
	}
	if root.Type() != ast.V_OBJECT {
		return nil, nil, crerr.Newf("parse metrics: expected object, got type %d", root.Type())
	}

	it, err := root.Properties()
	if err != nil {
		return nil, nil, crerr.Wrap(err, "iterate metrics")
	}

	metrics = Metrics{}
	var pair ast.Pair
	for it.Next(&pair) {
		value, ok := metricValue(pair.Value)
		if !ok {
			skipped = append(skipped, pair.Key)
			continue
		}
		metrics = append(metrics, Metric{Key: pair.Key, Value: value})
	}
	return metrics, skipped, nil
}

func metricValue(node ast.Node) (float64, bool) {
	switch node.Type() {
	case ast.V_NUMBER:
		v, err := node.Float64()
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case ast.V_STRING:
		s, err := node.String()
		if err != nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}
