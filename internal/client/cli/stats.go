package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	requestsMetric = "bookapp_client_requests_total"
	durationMetric = "bookapp_client_request_duration_seconds"
)

type requestStat struct {
	method string
	code   string
	count  uint64
}

// writeStats prints the requests this run sent to the API, grouped by method
// and status, followed by the total round-trip time.
func writeStats(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather client metrics: %w", err)
	}

	var (
		stats []requestStat
		total uint64
		spent float64
	)
	for _, mf := range families {
		switch mf.GetName() {
		case requestsMetric:
			for _, m := range mf.GetMetric() {
				s := requestStat{count: uint64(m.GetCounter().GetValue())}
				for _, l := range m.GetLabel() {
					switch l.GetName() {
					case "method":
						s.method = strings.ToUpper(l.GetValue())
					case "code":
						s.code = l.GetValue()
					}
				}
				total += s.count
				stats = append(stats, s)
			}
		case durationMetric:
			for _, m := range mf.GetMetric() {
				spent += m.GetHistogram().GetSampleSum()
			}
		}
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].method != stats[j].method {
			return stats[i].method < stats[j].method
		}
		return stats[i].code < stats[j].code
	})

	elapsed := time.Duration(spent * float64(time.Second)).Round(time.Millisecond)
	fmt.Fprintf(w, "API requests: %d in %s\n", total, elapsed)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range stats {
		fmt.Fprintf(tw, "  %s\t%s\t%d\n", s.method, s.code, s.count)
	}
	return tw.Flush()
}
