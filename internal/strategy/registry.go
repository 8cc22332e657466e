package strategy

import (
	"fmt"
	"go/token"
	"sync"
	"text/template"

	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/utils"
)

// Built-in strategy names
const (
	Overwrite = "overwrite"
	Append    = "append"
	Merge     = "merge"
)

// DefaultStrategy applies to fields without a strategy directive
const DefaultStrategy = Overwrite

// Strategy describes how a present partial field is combined with the original.
// Snippet returns a text/template body executed with .Target (the original
// field) and .Value (the dereferenced partial field). Imports lists the
// packages the snippet of a kind refers to; nil means none.
type Strategy struct {
	Name        string
	Description string
	Expected    string // accepted kinds, used in mismatch messages
	Accepts     func(Kind) bool
	Snippet     func(Kind) string
	Imports     func(Kind) []string
}

// Registry maps strategy names to strategies. Built-ins are registered by
// DefaultRegistry; additional strategies can be registered before resolution.
// A Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// DefaultRegistry creates a registry holding the built-in strategies
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	for _, s := range builtins() {
		if err := registry.Register(s); err != nil {
			panic(fmt.Sprintf("invalid built-in strategy %s: %v", s.Name, err))
		}
	}
	return registry
}

// Register adds a strategy. Names are unique identifiers and the snippet
// must parse for every kind the strategy accepts.
func (r *Registry) Register(s Strategy) error {
	if err := validateStrategy(s); err != nil {
		return fmt.Errorf("strategy registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[s.Name]; exists {
		return fmt.Errorf("strategy registry: strategy %q is already registered", s.Name)
	}
	r.strategies[s.Name] = s
	return nil
}

// Lookup returns the strategy registered under name
func (r *Registry) Lookup(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

// Names returns the registered strategy names in ascending order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return utils.SortedKeys(r.strategies)
}

// All returns the registered strategies ordered by name
func (r *Registry) All() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategies := make([]Strategy, 0, len(r.strategies))
	for _, name := range utils.SortedKeys(r.strategies) {
		strategies = append(strategies, r.strategies[name])
	}
	return strategies
}

func validateStrategy(s Strategy) error {
	name := s.Name
	if name == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}
	if !token.IsIdentifier(name) || token.IsKeyword(name) {
		return fmt.Errorf("strategy name %q is not an identifier", name)
	}
	if s.Accepts == nil || s.Snippet == nil {
		return fmt.Errorf("strategy %s needs both Accepts and Snippet", name)
	}

	for _, kind := range []Kind{KindOpaque, KindSlice, KindArray, KindMap, KindPointer} {
		if !s.Accepts(kind) {
			continue
		}
		if _, err := template.New(name).Parse(s.Snippet(kind)); err != nil {
			return fmt.Errorf("strategy %s has an invalid snippet for %s: %w", name, kind, err)
		}
	}
	return nil
}

func builtins() []Strategy {
	return []Strategy{
		{
			Name:        Overwrite,
			Description: "replace the original value with the partial value",
			Expected:    "any type",
			Accepts:     func(Kind) bool { return true },
			Snippet: func(Kind) string {
				return "{{.Target}} = {{.Value}}"
			},
		},
		{
			Name:        Append,
			Description: "append the partial elements after the original elements",
			Expected:    "a slice",
			Accepts:     func(k Kind) bool { return k == KindSlice },
			Snippet: func(Kind) string {
				return "{{.Target}} = mergeme.Append({{.Target}}, {{.Value}})"
			},
			Imports: runtimeImport,
		},
		{
			Name:        Merge,
			Description: "append slices, union maps with partial keys winning, otherwise call the value's Merge method",
			Expected:    "a slice, a map or a type with a Merge method",
			Accepts:     func(k Kind) bool { return k == KindSlice || k == KindMap || k == KindOpaque },
			Snippet: func(k Kind) string {
				switch k {
				case KindMap:
					return "{{.Target}} = mergeme.Union({{.Target}}, {{.Value}})"
				case KindSlice:
					return "{{.Target}} = mergeme.Append({{.Target}}, {{.Value}})"
				default:
					return "{{.Target}} = {{.Target}}.Merge({{.Value}})"
				}
			},
			Imports: func(k Kind) []string {
				if k == KindOpaque {
					return nil
				}
				return runtimeImport(k)
			},
		},
	}
}

func runtimeImport(Kind) []string {
	return []string{models.RuntimeImportPath}
}
