// Package telemetry times commands and counts failures through a tally
// scope. Reporting is best-effort: a panic inside the metrics path must
// never take the tool down with it.
package telemetry

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/uber-go/tally"
)

// TurnOffReportingEnv disables metrics emission when set, for automated
// runs that should not inflate usage numbers.
const TurnOffReportingEnv = "NIMPH_NO_METRICS"

// Instrument starts a timer for the named operation and returns the stop
// function to defer.
func Instrument(name string, tags map[string]string, debug *log.Logger) func() {
	defer catchErrors(debug)

	scope, closer := setupScope(tags)
	t := scope.Timer(name).Start()

	return func() {
		defer catchErrors(debug)
		t.Stop()
		if err := closer.Close(); err != nil {
			debug.Print(err.Error())
		}
	}
}

// ReportError bumps the failure counter for the named operation.
func ReportError(name string, tags map[string]string, debug *log.Logger) {
	defer catchErrors(debug)

	scope, closer := setupScope(tags)
	scope.Counter(name).Inc(1)
	if err := closer.Close(); err != nil {
		debug.Print(err.Error())
	}
}

func catchErrors(debug *log.Logger) {
	if r := recover(); r != nil {
		debug.Printf("got error while trying to report usage data: %s", r)
	}
}

func setupScope(tags map[string]string) (tally.Scope, io.Closer) {
	reporter := tally.StatsReporter(tally.NullStatsReporter)

	if tags == nil {
		tags = make(map[string]string)
	}
	if os.Getenv(TurnOffReportingEnv) != "" {
		tags["reporting"] = "off"
	}

	return tally.NewRootScope(
		tally.ScopeOptions{Reporter: reporter, Tags: tags},
		5*time.Second,
	)
}
