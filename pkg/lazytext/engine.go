package lazytext

import (
	"io"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext/iox"
)

// Engine bundles the settings holders are usually built with: a config
// whose ErrorOutcome becomes the policy of IO-backed holders, the executor
// concurrent sequences run on and an optional scope every new holder is
// attached to.
// Use New() to create a new engine instance.
type Engine struct {
	config *Config
	logger *Logger
	exec   Executor
	scope  Scope
	cache  *PatternCache
	// pinned is set once WithPool chose the executor.
	pinned bool
}

// New creates a new engine with the global configuration and the shared
// default executor.
func New() *Engine {
	config := GetGlobalConfig()
	return &Engine{
		config: config,
		logger: GetLogger(),
		exec:   DefaultExecutor(),
		cache:  NewPatternCache(),
	}
}

// NewWithConfig creates a new engine with custom configuration. The engine
// gets its own worker pool sized by config.ScatterWorkers.
func NewWithConfig(config *Config) *Engine {
	config = NewConfigWithDefaults(config)
	return &Engine{
		config: config,
		logger: GetLogger(),
		exec:   NewPool(config.ScatterWorkers),
		cache: NewPatternCacheWithConfig(CacheConfig{
			MaxSize: config.PatternCacheSize,
			TTL:     config.PatternCacheTTL,
		}),
	}
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration. Unless
// WithPool already chose an executor, the engine gets its own pool sized
// by config.ScatterWorkers.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
		e.cache = NewPatternCacheWithConfig(CacheConfig{
			MaxSize: e.config.PatternCacheSize,
			TTL:     e.config.PatternCacheTTL,
		})
		if !e.pinned {
			e.exec = NewPool(e.config.ScatterWorkers)
		}
	}
}

// WithPool returns an option that sets the executor used by concurrent
// sequences.
func WithPool(exec Executor) Option {
	return func(e *Engine) {
		if exec != nil {
			e.exec = exec
			e.pinned = true
		}
	}
}

// WithLogger returns an option that sets the logger the engine reports to.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScope returns an option that attaches every holder the engine
// creates to scope.
func WithScope(scope Scope) Option {
	return func(e *Engine) {
		e.scope = scope
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Executor returns the executor concurrent sequences run on.
func (e *Engine) Executor() Executor {
	return e.exec
}

// Scope returns the scope new holders are attached to, or nil.
func (e *Engine) Scope() Scope {
	return e.scope
}

// Policy returns the error policy IO-backed holders are created with.
func (e *Engine) Policy() iox.ErrorPolicy {
	return e.config.Policy()
}

// adopt attaches h to the engine scope, if there is one.
func (e *Engine) adopt(h Holder) error {
	if e.scope == nil {
		return nil
	}
	if err := h.Attach(e.scope); err != nil {
		e.logger.WithField("holder_min", h.MinLength()).Debug("Scope refused new holder: %v", err)
		return err
	}
	return nil
}

// Literal returns a resolved holder for s.
func (e *Engine) Literal(s string) (*Literal, error) {
	l := NewLiteral(s)
	if err := e.adopt(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Supply returns a holder produced by fn on first use.
func (e *Engine) Supply(b Bounds, fn func() (string, error)) (*Supplied, error) {
	s, err := Supply(b, fn)
	if err != nil {
		return nil, err
	}
	if err := e.adopt(s); err != nil {
		return nil, err
	}
	return s, nil
}

// SupplyIO returns a holder written by fn, with failures handled by the
// engine's error policy.
func (e *Engine) SupplyIO(b Bounds, fn func(w io.Writer) error) (*Supplied, error) {
	s, err := SupplyIO(b, fn, e.Policy())
	if err != nil {
		return nil, err
	}
	if err := e.adopt(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Stream returns a holder reading from open, with failures handled by the
// engine's error policy.
func (e *Engine) Stream(b Bounds, open iox.Opener) (*StreamBacked, error) {
	s, err := Stream(b, open, e.Policy())
	if err != nil {
		return nil, err
	}
	if err := e.adopt(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Engine) sequenceOptions(kind Kind) []SequenceOption {
	return []SequenceOption{
		WithKind(kind),
		WithExecutor(e.exec),
		WithMaxPresize(e.config.MaxPresize),
	}
}

func (e *Engine) sequence(kind Kind) (*Sequence, error) {
	seq := NewSequence(e.sequenceOptions(kind)...)
	if err := e.adopt(seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// Sequence returns an empty default sequence.
func (e *Engine) Sequence() (*Sequence, error) {
	return e.sequence(KindDefault)
}

// StringSequence returns an empty sequence that resolves holders on append.
func (e *Engine) StringSequence() (*Sequence, error) {
	return e.sequence(KindStrings)
}

// ConcurrentSequence returns an empty sequence that materializes on the
// engine's executor.
func (e *Engine) ConcurrentSequence() (*Sequence, error) {
	return e.sequence(KindConcurrent)
}

// If returns a conditional holder over inner.
func (e *Engine) If(inner Holder, pred Predicate) (*Conditional, error) {
	c := If(inner, pred)
	if err := e.adopt(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Compose builds a sequence of the given kind from pattern, reusing the
// tokens of patterns composed before.
func (e *Engine) Compose(pattern string, slots map[string]Holder, kind Kind) (*Sequence, error) {
	seq, err := composeTokens(e.cache.Tokens(pattern), slots, e.sequenceOptions(kind)...)
	if err != nil {
		return nil, err
	}
	if err := e.adopt(seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// Close releases the engine's cached patterns. Holders already created
// stay usable.
func (e *Engine) Close() error {
	e.cache.Clear()
	return nil
}
