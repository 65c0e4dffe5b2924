// Command wpsctl loads a node's YAML schedule file, builds its connection
// table, and serves the resulting link-quality counters on /metrics — a
// small operational companion to the wps library, not a replacement for
// wiring wps.New into a real application. Flag handling follows
// doismellburning-samoyed's kissutil.go: pflag.StringP/BoolP plus a custom
// pflag.Usage.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/kidd971/wps/config"
	"github.com/kidd971/wps/metrics"
	"github.com/kidd971/wps/wpslog"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to the node's YAML schedule file (required)")
	metricsAddr := pflag.StringP("metrics-addr", "m", ":9110", "Address to serve Prometheus metrics on")
	dryRun := pflag.BoolP("dry-run", "n", false, "Parse and validate the schedule, print a summary, and exit")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	help := pflag.Bool("help", false, "Display help text")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wpsctl -c schedule.yaml [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help || *configPath == "" {
		pflag.Usage()
		if *configPath == "" && !*help {
			os.Exit(2)
		}
		return
	}

	if *verbose {
		wpslog.Set(wpslog.NewCharmLogger())
	}

	spec, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wpsctl:", err)
		os.Exit(1)
	}

	timeslots, connections, err := spec.BuildTimeslots()
	if err != nil {
		fmt.Fprintln(os.Stderr, "wpsctl:", err)
		os.Exit(1)
	}

	fmt.Printf("local_address=%d role=%s timeslots=%d connections=%d\n",
		spec.LocalAddress, spec.Role, len(timeslots), len(connections))

	if *dryRun {
		return
	}

	collector := metrics.NewLQICollector("connection", prometheus.Labels{
		"local_address": fmt.Sprintf("%d", spec.LocalAddress),
	})
	for id, conn := range connections {
		collector.Track(conn.SourceAddress, conn, id)
	}
	prometheus.MustRegister(collector)

	http.Handle("/metrics", promhttp.Handler())
	fmt.Printf("wpsctl: serving metrics on %s\n", *metricsAddr)
	if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
		fmt.Fprintln(os.Stderr, "wpsctl:", err)
		os.Exit(1)
	}
}
