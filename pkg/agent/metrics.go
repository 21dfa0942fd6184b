// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package agent

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_runs_total",
			Help: "Total number of agent runs by outcome.",
		},
		[]string{"outcome"},
	)

	failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_failures_total",
			Help: "Failed attempts by error kind.",
		},
		[]string{"kind"},
	)

	attemptsPerRun = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quill_attempts_per_run",
			Help:    "Generation attempts consumed per run.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	executionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quill_execution_seconds",
			Help:    "Query execution latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, failuresTotal, attemptsPerRun, executionSeconds)
}
