package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"server/internal/cache"
	"server/internal/domain"
	"server/internal/engine"
	"server/internal/extract"
	"server/internal/infra"
	"server/internal/stream"
	"server/internal/validate"
)

// runState tracks where a run is in its lifecycle, for logging.
type runState string

const (
	statePreflight  runState = "preflight"
	stateRunning    runState = "running"
	stateExtracting runState = "extracting"
	stateStreaming  runState = "streaming"
	stateDone       runState = "done"
	stateFailed     runState = "failed"
)

// primaryOrder is the display priority after blog. Policy knob: reorder here
// to change which type streams progressively.
var primaryOrder = []domain.ContentType{
	domain.ContentTypeBlog,
	domain.ContentTypeAudio,
	domain.ContentTypeSocial,
	domain.ContentTypeVideo,
}

// Engine is the generation-engine collaborator as the executor sees it.
type Engine interface {
	Health(ctx context.Context) error
	Generate(ctx context.Context, req engine.GenerateRequest) (*engine.GenerationResult, error)
}

// Options wires an Executor. All collaborators are injected; the executor
// holds no global state.
type Options struct {
	Engine    Engine
	Extractor *extract.Extractor
	Validator *validate.Validator
	Cache     cache.Store
	Config    *infra.Config
	Logger    infra.Logger
}

// Executor orchestrates one generation run: preflight, the blocking engine
// call bridged onto a background goroutine with heartbeats, extraction,
// validation, chunked streaming, caching, and the terminal event.
type Executor struct {
	engine    Engine
	extractor *extract.Extractor
	validator *validate.Validator
	cache     cache.Store
	encoder   *stream.Encoder
	cfg       *infra.Config
	logger    infra.Logger
}

func NewExecutor(opts Options) *Executor {
	return &Executor{
		engine:    opts.Engine,
		extractor: opts.Extractor,
		validator: opts.Validator,
		cache:     opts.Cache,
		encoder:   stream.NewEncoder(),
		cfg:       opts.Config,
		logger:    opts.Logger,
	}
}

type generateOutcome struct {
	result *engine.GenerationResult
	err    error
}

// Run produces the finite event sequence for one request. The channel is
// closed after exactly one terminal event; the caller must not reuse it for
// another logical run. Errors never escape as panics or returned errors —
// they become terminal ERROR events so the transport can flush them.
func (e *Executor) Run(ctx context.Context, req domain.GenerationRequest) <-chan stream.Event {
	ch := make(chan stream.Event)
	go e.run(ctx, req, ch)
	return ch
}

func (e *Executor) run(ctx context.Context, req domain.GenerationRequest, ch chan<- stream.Event) {
	defer close(ch)

	emit := func(ev stream.Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	model := e.cfg.ModelForTier(string(req.Tier))
	fingerprint := cache.Fingerprint(req.Topic, req.ContentTypes, e.cfg.PromptVersion, model, e.cfg.ModerationVersion)
	logger := e.logger.With().Str("fingerprint", fingerprint).Str("model", model).Logger()

	if req.UseCache {
		if entry, err := e.cache.Get(ctx, fingerprint); err == nil {
			logger.Info().Msg("run: cache hit")
			if !emit(stream.Status("initializing")) {
				return
			}
			e.deliver(ctx, req, entry.Payload, true, entry.Model, emit)
			return
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("run: cache read failed")
		}
	}

	// The overall budget spans preflight through completion.
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.EngineTimeout)
	defer cancel()

	logger.Debug().Str("state", string(statePreflight)).Msg("run: probing engine")
	if err := e.engine.Health(runCtx); err != nil {
		logger.Error().Err(err).Str("state", string(stateFailed)).Msg("run: engine preflight failed")
		emit(stream.Error(domain.ErrKindConnection, "generation engine is unreachable"))
		return
	}

	if !emit(stream.Status("initializing")) {
		return
	}

	genReq := engine.GenerateRequest{
		Topic:        req.Topic,
		ContentTypes: req.SortedContentTypes(),
		Model:        model,
		MaxTokens:    e.cfg.MaxTokensForTier(string(req.Tier)),
	}

	// The blocking call runs on its own goroutine so this one can keep the
	// stream alive with heartbeats. Cancelling runCtx aborts the underlying
	// request; a result arriving after the deadline is discarded unseen.
	outcomeCh := make(chan generateOutcome, 1)
	go func() {
		result, err := e.engine.Generate(runCtx, genReq)
		outcomeCh <- generateOutcome{result: result, err: err}
	}()

	logger.Debug().Str("state", string(stateRunning)).Msg("run: engine call started")
	outcome, ok := e.await(runCtx, ctx, outcomeCh, emit)
	if !ok {
		return
	}
	if outcome.err != nil {
		kind, msg := classifyEngineError(outcome.err)
		logger.Error().Err(outcome.err).Str("state", string(stateFailed)).Str("error_kind", string(kind)).Msg("run: generation failed")
		emit(stream.Error(kind, msg))
		return
	}

	logger.Debug().Str("state", string(stateExtracting)).Msg("run: extracting content")
	texts, anyUseful := e.extractAll(runCtx, outcome.result, req, model)
	if !anyUseful {
		logger.Error().Str("state", string(stateFailed)).Msg("run: no valid content produced")
		emit(stream.Error(domain.ErrKindEmpty, domain.ErrNoValidContent.Error()))
		return
	}

	e.deliver(runCtx, req, texts, false, model, emit)

	if err := e.cache.Set(runCtx, fingerprint, texts, model, e.cfg.CacheTTL); err != nil {
		logger.Warn().Err(err).Msg("run: cache write failed")
	}
	logger.Info().Str("state", string(stateDone)).Msg("run: completed")
}

// await polls the outstanding engine call, emitting a keepalive each time the
// heartbeat interval elapses without a result.
func (e *Executor) await(runCtx, clientCtx context.Context, outcomeCh <-chan generateOutcome, emit func(stream.Event) bool) (generateOutcome, bool) {
	ticker := time.NewTicker(e.cfg.HeartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case outcome := <-outcomeCh:
			return outcome, true
		case <-ticker.C:
			if !emit(stream.Keepalive()) {
				return generateOutcome{}, false
			}
		case <-runCtx.Done():
			if clientCtx.Err() != nil {
				// Client went away; nobody is listening for a terminal event.
				return generateOutcome{}, false
			}
			emit(stream.Error(domain.ErrKindTimeout, fmt.Sprintf("generation exceeded the %s budget", e.cfg.EngineTimeout)))
			return generateOutcome{}, false
		}
	}
}

// extractAll runs extraction and validation for every requested type. Types
// that yield nothing useful are explicitly marked absent with an empty
// string; anyUseful is false only when every type came back trivial even
// after the last-resort pass.
func (e *Executor) extractAll(ctx context.Context, result *engine.GenerationResult, req domain.GenerationRequest, model string) (map[domain.ContentType]string, bool) {
	texts := make(map[domain.ContentType]string, len(req.ContentTypes))
	anyUseful := false
	for _, ct := range req.ContentTypes {
		extracted := e.extractor.Extract(ctx, result, ct)
		validated := e.validator.ValidateAndRepair(ct, extracted.Text, model, true)
		text := validated.Text
		if !validated.IsValid {
			// Strict validation is recoverable per type: fall back to
			// boilerplate-stripped raw text instead of discarding it.
			text = extract.StripBoilerplate(extracted.Text)
		}
		if !domain.NonTrivial(text) {
			texts[ct] = ""
			continue
		}
		e.logger.Debug().
			Str("content_type", string(ct)).
			Str("method", string(extracted.Method)).
			Bool("valid", validated.IsValid).
			Bool("repaired", validated.WasRepaired).
			Msg("run: content extracted")
		texts[ct] = text
		anyUseful = true
	}

	if !anyUseful {
		if text := e.extractor.LastResort(result); domain.NonTrivial(text) {
			texts[req.ContentTypes[0]] = text
			anyUseful = true
		}
	}
	return texts, anyUseful
}

// deliver streams the primary content progressively and then emits the
// terminal COMPLETE event carrying every requested type in full.
func (e *Executor) deliver(ctx context.Context, req domain.GenerationRequest, texts map[domain.ContentType]string, cached bool, model string, emit func(stream.Event) bool) {
	primary, ok := choosePrimary(req, texts)
	if ok {
		e.logger.Debug().Str("state", string(stateStreaming)).Str("primary", string(primary)).Msg("run: streaming primary content")
		delivered := true
		e.encoder.EncodeChunks(ctx, primary, texts[primary], func(ev stream.Event) bool {
			delivered = emit(ev)
			return delivered
		})
		if !delivered {
			return
		}
	}
	emit(stream.Complete(stream.NewCompletePayload(texts, cached, model, e.cfg.PromptVersion)))
}

// choosePrimary picks the content type for progressive display: blog when
// non-trivial, otherwise the first non-trivial requested type in priority
// order.
func choosePrimary(req domain.GenerationRequest, texts map[domain.ContentType]string) (domain.ContentType, bool) {
	requested := make(map[domain.ContentType]struct{}, len(req.ContentTypes))
	for _, ct := range req.ContentTypes {
		requested[ct] = struct{}{}
	}
	for _, ct := range primaryOrder {
		if _, ok := requested[ct]; !ok {
			continue
		}
		if domain.NonTrivial(texts[ct]) {
			return ct, true
		}
	}
	return "", false
}

func classifyEngineError(err error) (domain.ErrorKind, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrKindTimeout, "generation timed out"
	case errors.Is(err, context.Canceled):
		return domain.ErrKindInterrupted, "generation was interrupted"
	case errors.Is(err, domain.ErrEngineUnreachable):
		return domain.ErrKindConnection, "generation engine is unreachable"
	default:
		return domain.ErrKindUnknown, fmt.Sprintf("generation failed: %v", err)
	}
}
