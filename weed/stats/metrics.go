package stats

import (
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seaweedfs/ecsplit/weed/glog"
)

const (
	Namespace = "ECSplit"
)

var (
	Gather = prometheus.NewRegistry()

	EcSplitRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "split",
			Name:      "iods_total",
			Help:      "Counter of trimmed iods produced, by iod kind.",
		}, []string{"type"})

	EcSplitErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "split",
			Name:      "errors_total",
			Help:      "Counter of failed splits.",
		}, []string{"reason"})

	EcSplitTargetsHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "split",
			Name:      "targets",
			Help:      "Number of participating targets per split request.",
			Buckets:   prometheus.LinearBuckets(2, 2, 16),
		})

	EcSplitBytesHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "split",
			Name:      "bytes",
			Help:      "Bytes reserved for one split request.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 16),
		})

	EcSplitTgtOiodTablesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "split",
			Name:      "tgt_oiod_tables_inflight",
			Help:      "Target oiod tables not yet released.",
		})

	EcForwardCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "forward",
			Name:      "requests_total",
			Help:      "Counter of split requests handed to the sender.",
		}, []string{"type"})
)

func init() {
	Gather.MustRegister(EcSplitRequestCounter)
	Gather.MustRegister(EcSplitErrorCounter)
	Gather.MustRegister(EcSplitTargetsHistogram)
	Gather.MustRegister(EcSplitBytesHistogram)
	Gather.MustRegister(EcSplitTgtOiodTablesGauge)
	Gather.MustRegister(EcForwardCounter)

	Gather.MustRegister(collectors.NewGoCollector())
	Gather.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func JoinHostPort(host string, port int) string {
	portStr := strconv.Itoa(port)
	if host == "" {
		return ":" + portStr
	}
	return net.JoinHostPort(host, portStr)
}

func StartMetricsServer(ip string, port int) {
	if port == 0 {
		return
	}
	http.Handle("/metrics", promhttp.HandlerFor(Gather, promhttp.HandlerOpts{}))
	glog.V(0).Infof("serving metrics on %s", JoinHostPort(ip, port))
	if err := http.ListenAndServe(JoinHostPort(ip, port), nil); err != nil {
		glog.Fatalf("metrics server: %v", err)
	}
}
