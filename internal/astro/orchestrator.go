package astro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/astromitra/horoscope-engine/internal/apperr"
	"github.com/astromitra/horoscope-engine/internal/metrics"
)

// ProviderKey is the rate-limiter key shared by every provider call in the
// process. The provider enforces a global limit, not a per-user one.
const ProviderKey = "provider"

// Orchestrator drives one computation attempt through its state machine:
// geocoding, time resolution, the three sequential provider calls, summary,
// persistence. It is the only writer of session records.
type Orchestrator struct {
	locations LocationResolver
	instants  InstantResolver
	provider  ProviderClient
	limiter   Limiter
	store     SessionStore
	collector *metrics.Collector
	logger    zerolog.Logger

	// per provider call, not per session
	callTimeout time.Duration
}

// NewOrchestrator wires the orchestrator. callTimeout bounds each individual
// provider call.
func NewOrchestrator(
	locations LocationResolver,
	instants InstantResolver,
	provider ProviderClient,
	limiter Limiter,
	store SessionStore,
	collector *metrics.Collector,
	logger zerolog.Logger,
	callTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		locations:   locations,
		instants:    instants,
		provider:    provider,
		limiter:     limiter,
		store:       store,
		collector:   collector,
		logger:      logger.With().Str("component", "orchestrator").Logger(),
		callTimeout: callTimeout,
	}
}

// Compute runs the full pipeline for one descriptor.
//
// Geocoding and time-resolution failures return before any session exists,
// so the returned session is nil. Once both succeed a session is persisted,
// and every later failure leaves it behind in Failed state with the stage
// and classified cause recorded; the partial session is returned alongside
// the error so callers can report its id.
func (o *Orchestrator) Compute(ctx context.Context, d BirthDescriptor) (*Session, error) {
	loc, err := o.locations.Resolve(ctx, d.Location)
	if err != nil {
		o.logger.Warn().Err(err).Str("place", d.Location).Msg("geocoding failed")
		return nil, err
	}

	inst, err := o.instants.ResolveInstant(d.Date, d.Time, loc.Timezone)
	if err != nil {
		o.logger.Warn().Err(err).Str("zone", loc.Timezone).Msg("time resolution failed")
		return nil, err
	}

	id, err := o.store.CreateSession(ctx, d)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to create session", err)
	}

	session := &Session{
		ID:         id,
		Descriptor: d,
		Location:   &loc,
		Instant:    &inst,
		Status:     StatusResolving,
		CreatedAt:  time.Now().UTC(),
	}

	// Persist the resolved inputs before any provider call so the session is
	// traceable even if the provider stage fails.
	if err := o.patch(ctx, session, SessionPatch{
		Status:   statusPtr(StatusResolving),
		Location: &loc,
		Instant:  &inst,
	}); err != nil {
		return session, err
	}
	if err := o.patch(ctx, session, SessionPatch{Status: statusPtr(StatusComputing)}); err != nil {
		return session, err
	}

	o.logger.Info().
		Str("session", id).
		Str("zone", loc.Timezone).
		Time("utc", inst.UTC).
		Msg("resolved birth event, starting provider calls")

	req := ComputationRequest{Location: loc, Instant: inst, Ayanamsa: d.Ayanamsa}

	chart, err := callProvider(ctx, o, StageCallingChart, req, o.provider.Chart)
	if err != nil {
		return session, o.fail(ctx, session, StageCallingChart, err)
	}
	period, err := callProvider(ctx, o, StageCallingPeriod, req, o.provider.Period)
	if err != nil {
		return session, o.fail(ctx, session, StageCallingPeriod, err)
	}
	almanac, err := callProvider(ctx, o, StageCallingAlmanac, req, o.provider.Almanac)
	if err != nil {
		return session, o.fail(ctx, session, StageCallingAlmanac, err)
	}

	summary := Summarize(chart, period, almanac)
	payload := &ProviderPayload{Chart: chart, Period: period, Almanac: almanac}

	if err := o.patch(ctx, session, SessionPatch{
		Status:     statusPtr(StatusSucceeded),
		Summary:    &summary,
		RawPayload: payload,
	}); err != nil {
		return session, err
	}

	o.collector.SessionFinished(string(StatusSucceeded))
	o.logger.Info().Str("session", id).Msg("computation succeeded")
	return session, nil
}

// callProvider applies the rate limiter, bounds the call with its own
// timeout, and records metrics. T is one of the three payload types.
func callProvider[T any](
	ctx context.Context,
	o *Orchestrator,
	stage Stage,
	req ComputationRequest,
	call func(context.Context, ComputationRequest) (*T, error),
) (*T, error) {
	if err := o.limiter.Wait(ctx, ProviderKey); err != nil {
		return nil, apperr.Wrap(apperr.CodeProviderUnavailable, "rate limit wait interrupted", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	start := time.Now()
	payload, err := call(callCtx, req)
	o.collector.ObserveProviderCall(string(stage), err == nil, time.Since(start))

	if err != nil {
		return nil, classifyProviderError(stage, err)
	}
	return payload, nil
}

// fail persists the terminal failure. Partial payloads from earlier calls in
// the stage are discarded, not retained.
func (o *Orchestrator) fail(ctx context.Context, session *Session, stage Stage, cause error) error {
	causeMsg := apperr.MessageOf(cause)
	if err := o.patch(ctx, session, SessionPatch{
		Status:       statusPtr(StatusFailed),
		FailureStage: &stage,
		FailureCause: &causeMsg,
	}); err != nil {
		o.logger.Error().Err(err).Str("session", session.ID).Msg("failed to persist failure state")
	}

	o.collector.SessionFinished(string(StatusFailed))
	o.logger.Warn().
		Err(cause).
		Str("session", session.ID).
		Str("stage", string(stage)).
		Msg("provider stage failed")
	return cause
}

func (o *Orchestrator) patch(ctx context.Context, session *Session, p SessionPatch) error {
	if err := o.store.UpdateSession(ctx, session.ID, p); err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to update session", err)
	}
	p.Apply(session)
	return nil
}

func classifyProviderError(stage Stage, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.CodeProviderTimeout,
			fmt.Sprintf("provider call timed out during %s", stage), err)
	}
	return apperr.Wrap(apperr.CodeProviderUnavailable,
		fmt.Sprintf("provider call failed during %s", stage), err)
}

func statusPtr(s Status) *Status { return &s }
