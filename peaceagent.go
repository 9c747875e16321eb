// Package peaceagent provides the core runtime for turning an interpersonal
// transgression into a budget-bounded reconciliation plan: an apology message,
// a ranked set of concrete gestures, a cost estimate and a success estimate.
package peaceagent

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/TrevorConnolly/ApologyAgent/internal/eventbus"
)

// PeaceAgent is the main entry point into the planning runtime. It drives
// each request through the validating/analyzing/planning/executing pipeline.
type PeaceAgent struct {
	// Core components
	analyzer Analyzer
	planner  Planner
	executor Executor
	recorder Recorder
	cache    Cache
	eventBus eventbus.EventBus

	// Gesture providers, keyed by the action type they serve
	adapters map[ActionType]ToolAdapter

	// Configuration
	config Config

	// Async processing
	asyncPlans      map[string]*PlanContext
	asyncPlansMutex sync.RWMutex
}

// Config holds the configuration options for the PeaceAgent runtime.
type Config struct {
	// Per-stage wall-clock allowances. Exceeding one triggers that
	// stage's fallback, never a request failure.
	AnalyzeTimeout time.Duration
	PlanTimeout    time.Duration
	ExecuteTimeout time.Duration

	// Per provider call bound during planning and resolution
	AdapterTimeout time.Duration

	// Fan-out limits
	MaxConcurrentSearches int

	// Maximum number of actions one plan may carry
	MaxActions int

	// Event bus configuration
	EnableEventBus      bool
	EventBusBufferSize  int
	EventBusWorkerCount int

	// Version stamp recorded with each plan
	Version string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AnalyzeTimeout:        time.Second * 30,
		PlanTimeout:           time.Second * 30,
		ExecuteTimeout:        time.Second * 30,
		AdapterTimeout:        time.Second * 5,
		MaxConcurrentSearches: 4,
		MaxActions:            5,
		EnableEventBus:        true,
		EventBusBufferSize:    100,
		EventBusWorkerCount:   5,
		Version:               "dev",
	}
}

// Option is a function that configures a PeaceAgent instance.
type Option func(*PeaceAgent)

// WithConfig sets the configuration.
func WithConfig(config Config) Option {
	return func(p *PeaceAgent) {
		p.config = config
	}
}

// WithAnalyzer sets the context analyzer component.
func WithAnalyzer(analyzer Analyzer) Option {
	return func(p *PeaceAgent) {
		p.analyzer = analyzer
	}
}

// WithPlanner sets the strategy planner component.
func WithPlanner(planner Planner) Option {
	return func(p *PeaceAgent) {
		p.planner = planner
	}
}

// WithExecutor sets the action executor component.
func WithExecutor(executor Executor) Option {
	return func(p *PeaceAgent) {
		p.executor = executor
	}
}

// WithRecorder sets the best-effort logging collaborator. Optional; its
// absence never changes pipeline behavior.
func WithRecorder(recorder Recorder) Option {
	return func(p *PeaceAgent) {
		p.recorder = recorder
	}
}

// WithCache sets the cache component.
func WithCache(cache Cache) Option {
	return func(p *PeaceAgent) {
		p.cache = cache
	}
}

// WithAdapters registers gesture providers.
func WithAdapters(adapters map[ActionType]ToolAdapter) Option {
	return func(p *PeaceAgent) {
		if p.adapters == nil {
			p.adapters = make(map[ActionType]ToolAdapter)
		}
		for actionType, adapter := range adapters {
			p.adapters[actionType] = adapter
		}
	}
}

// New creates a new PeaceAgent instance with the provided options.
func New(ctx context.Context, options ...Option) (*PeaceAgent, error) {
	p := &PeaceAgent{
		config:     DefaultConfig(),
		adapters:   make(map[ActionType]ToolAdapter),
		asyncPlans: make(map[string]*PlanContext),
	}

	for _, option := range options {
		option(p)
	}

	if p.planner == nil {
		return nil, NewConfigurationError("planner is required", nil)
	}
	if p.executor == nil {
		return nil, NewConfigurationError("executor is required", nil)
	}

	if p.config.EnableEventBus && p.eventBus == nil {
		p.eventBus = eventbus.NewChannelEventBus(
			eventbus.WithBufferSize(p.config.EventBusBufferSize),
			eventbus.WithWorkerCount(p.config.EventBusWorkerCount),
		)
		log.Printf("Initialized default channel-based event bus")
	}

	return p, nil
}

// RegisterAdapter adds a gesture provider for an action type.
func (p *PeaceAgent) RegisterAdapter(adapter ToolAdapter) error {
	if _, exists := p.adapters[adapter.ActionType()]; exists {
		return NewConfigurationError("adapter for action type '"+string(adapter.ActionType())+"' already exists", nil)
	}
	p.adapters[adapter.ActionType()] = adapter
	return nil
}

// AdapterSchemas returns the schema of every registered provider, keyed by
// provider name.
func (p *PeaceAgent) AdapterSchemas() map[string]map[string]interface{} {
	schemas := make(map[string]map[string]interface{})
	for _, adapter := range p.adapters {
		schemas[adapter.Name()] = adapter.Schema()
	}
	return schemas
}

// Plan handles one end-to-end request through the pipeline state machine.
// Only a malformed request returns an error; every other condition degrades
// in place and still yields a usable response.
func (p *PeaceAgent) Plan(ctx context.Context, request ApologyContext) (*ApologyResponse, error) {
	stateMachine := p.createStateMachine()
	planContext := NewPlanContext(request)

	response, err := stateMachine.Execute(ctx, planContext)
	if err != nil {
		return nil, err
	}

	p.record(request, response)
	return response, nil
}

// record hands the finished plan to the logging collaborator without
// touching the response path.
func (p *PeaceAgent) record(request ApologyContext, response *ApologyResponse) {
	if p.recorder == nil || response == nil {
		return
	}
	record := PlanRecord{
		Request:   request,
		Response:  response,
		Timestamp: time.Now(),
		Version:   p.config.Version,
	}
	go func() {
		recordCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := p.recorder.Record(recordCtx, record); err != nil {
			log.Printf("Plan record failed: %v", err)
		}
	}()
}

// createStateMachine builds a state machine wired to this runtime's
// components.
func (p *PeaceAgent) createStateMachine() *StateMachine {
	var eventBus eventbus.EventBus
	if p.config.EnableEventBus {
		eventBus = p.eventBus
	}

	components := PipelineComponents{
		Analyzer: p.analyzer,
		Planner:  p.planner,
		Executor: p.executor,
		Config:   p.config,
	}

	return CreatePlanStateMachine(components, eventBus)
}

// Close shuts down the event bus. The runtime must not be used afterwards.
func (p *PeaceAgent) Close() error {
	if p.eventBus != nil {
		return p.eventBus.Close()
	}
	return nil
}
