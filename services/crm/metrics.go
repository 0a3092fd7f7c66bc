// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package crm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	routerGuardsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cupcakery",
		Subsystem: "router",
		Name:      "guards_fired_total",
		Help:      "Total deterministic guard firings by guard type",
	}, []string{"guard"})

	routerLLMFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cupcakery",
		Subsystem: "router",
		Name:      "llm_fallback_total",
		Help:      "Router decisions delegated to the LLM, by outcome",
	}, []string{"outcome"})

	executorToolRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cupcakery",
		Subsystem: "executor",
		Name:      "tool_runs_total",
		Help:      "Tool invocations by tool name and outcome",
	}, []string{"tool", "outcome"})

	interceptorTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cupcakery",
		Subsystem: "synthesizer",
		Name:      "execution_lock_total",
		Help:      "Times the execution-lock interceptor replaced leaked order JSON",
	})
)
