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
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/cupcakery-crm/services/crm/notify"
	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/crm/tools"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

var pipelineTracer = otel.Tracer("cupcakery.crm.pipeline")

// Pipeline wires the four stages into the single chat operation.
//
// Description:
//
//	One inbound message flows identity resolution, intent routing,
//	conditional tool execution, and response synthesis, strictly in that
//	order with no internal parallelism. An error return is a pipeline
//	fault (store down, all providers exhausted); business-rule failures
//	never surface here, they become response text.
//
// Thread Safety: Safe for concurrent use. Each call owns its state.
type Pipeline struct {
	resolver    *IdentityResolver
	router      *Router
	executor    *Executor
	synthesizer *Synthesizer
	logger      *slog.Logger
}

// NewPipeline assembles the stages over shared collaborators.
func NewPipeline(st store.Store, client llm.Client, registry *tools.Registry, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		resolver:    &IdentityResolver{Store: st, Logger: logger},
		router:      &Router{Store: st, LLM: client, Registry: registry, Logger: logger},
		executor:    &Executor{Registry: registry, Logger: logger},
		synthesizer: &Synthesizer{Store: st, LLM: client, Registry: registry, Logger: logger},
		logger:      logger,
	}
}

// NewDefaultPipeline builds a pipeline with the standard tool registry.
func NewDefaultPipeline(st store.Store, client llm.Client, notifier notify.Notifier, logger *slog.Logger) *Pipeline {
	return NewPipeline(st, client, tools.DefaultRegistry(st, notifier, logger), logger)
}

// Handle processes one chat message end to end and returns the reply.
func (p *Pipeline) Handle(ctx context.Context, userID, message string, history []Message) (string, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.handle")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	state := &PipelineState{
		UserID:  userID,
		Query:   message,
		History: history,
	}

	profile, err := p.resolver.Resolve(ctx, userID)
	if err != nil {
		return "", err
	}
	state.Profile = profile

	routeCtx, routeSpan := pipelineTracer.Start(ctx, "pipeline.route")
	err = p.router.Route(routeCtx, state)
	routeSpan.End()
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("intent", state.Intent))

	if state.Intent == IntentConversational && state.FinalResponse != "" {
		// Short-circuited by a guard or by a plain-text model reply. The
		// interceptor still inspects it for leaked order JSON, even when the
		// settings record is unreadable (BankDetails falls back to defaults).
		settings, err := p.synthesizer.Store.GetSettings(ctx)
		if err != nil {
			p.logger.Warn("site settings unavailable, intercepting with default bank details",
				slog.Any("error", err))
			settings = store.SiteSettings{}
		}
		state.FinalResponse = p.synthesizer.intercept(ctx, state.FinalResponse, userID, settings.BankDetails())
		return state.FinalResponse, nil
	}

	if len(state.Invocations) > 0 {
		execCtx, execSpan := pipelineTracer.Start(ctx, "pipeline.execute")
		execSpan.SetAttributes(attribute.Int("invocations", len(state.Invocations)))
		p.executor.Execute(execCtx, state)
		execSpan.End()
	}

	synthCtx, synthSpan := pipelineTracer.Start(ctx, "pipeline.synthesize")
	err = p.synthesizer.Synthesize(synthCtx, state)
	synthSpan.End()
	if err != nil {
		return "", err
	}

	p.logger.Info("chat handled",
		slog.String("user_id", userID),
		slog.String("intent", state.Intent),
		slog.Int("tools_run", len(state.Results)))
	return state.FinalResponse, nil
}
