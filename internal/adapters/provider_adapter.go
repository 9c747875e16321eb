package adapters

import (
	"context"
	"fmt"

	"github.com/TrevorConnolly/ApologyAgent"
)

// SearchFunc is a plain Go function implementing an adapter's search side.
type SearchFunc func(ctx context.Context, query peaceagent.ToolQuery) ([]peaceagent.PricedOption, error)

// ConfirmFunc is a plain Go function implementing an adapter's confirm side.
type ConfirmFunc func(ctx context.Context, option peaceagent.PricedOption, query peaceagent.ToolQuery) (*peaceagent.ExecutionDetails, error)

// ProviderAdapter adapts a pair of Go functions to the peaceagent.ToolAdapter
// interface, so simulated and real providers share one registration path.
type ProviderAdapter struct {
	name       string
	actionType peaceagent.ActionType
	search     SearchFunc
	confirm    ConfirmFunc
	schema     map[string]interface{}
}

// ProviderOption configures a ProviderAdapter.
type ProviderOption func(*ProviderAdapter)

// WithDescription sets a detailed description in the adapter schema.
func WithDescription(description string) ProviderOption {
	return func(a *ProviderAdapter) {
		a.schema["description"] = description
	}
}

// WithCategory sets the adapter's category in the schema.
func WithCategory(category string) ProviderOption {
	return func(a *ProviderAdapter) {
		a.schema["category"] = category
	}
}

// WithParameters sets the parameter descriptions in the schema.
func WithParameters(parameters map[string]string) ProviderOption {
	return func(a *ProviderAdapter) {
		a.schema["parameters"] = parameters
	}
}

// WithReturns sets the return value description in the schema.
func WithReturns(returns string) ProviderOption {
	return func(a *ProviderAdapter) {
		a.schema["returns"] = returns
	}
}

// NewProviderAdapter creates an adapter for the given search/confirm pair.
// confirm may be nil for adapters whose options need no booking step; Confirm
// then echoes the option's own details.
func NewProviderAdapter(name string, actionType peaceagent.ActionType, search SearchFunc, confirm ConfirmFunc, options ...ProviderOption) *ProviderAdapter {
	a := &ProviderAdapter{
		name:       name,
		actionType: actionType,
		search:     search,
		confirm:    confirm,
		schema:     map[string]interface{}{"name": name},
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Name implements the peaceagent.ToolAdapter interface.
func (a *ProviderAdapter) Name() string { return a.name }

// ActionType implements the peaceagent.ToolAdapter interface.
func (a *ProviderAdapter) ActionType() peaceagent.ActionType { return a.actionType }

// Schema implements the peaceagent.ToolAdapter interface.
func (a *ProviderAdapter) Schema() map[string]interface{} { return a.schema }

// Search implements the peaceagent.ToolAdapter interface.
func (a *ProviderAdapter) Search(ctx context.Context, query peaceagent.ToolQuery) ([]peaceagent.PricedOption, error) {
	if a.search == nil {
		return nil, peaceagent.NewConfigurationError(
			fmt.Sprintf("adapter '%s' has no search function", a.name), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.search(ctx, query)
}

// Confirm implements the peaceagent.ToolAdapter interface.
func (a *ProviderAdapter) Confirm(ctx context.Context, option peaceagent.PricedOption, query peaceagent.ToolQuery) (*peaceagent.ExecutionDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.confirm == nil {
		return &peaceagent.ExecutionDetails{
			URL:      option.URL,
			Provider: option.Provider,
			Extra:    option.Details,
		}, nil
	}
	return a.confirm(ctx, option, query)
}
