package rimepatch

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-rimepatch/color"
	"github.com/goliatone/go-rimepatch/tree"
)

// Function represents a callable exposed to check expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by lower-cased name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// DefaultFunctionRegistry returns a registry holding the color and lookup
// helpers: bgr_to_rgb, rgb_to_bgr, has_alpha and lookup.
func DefaultFunctionRegistry() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("bgr_to_rgb", bgrToRGB)
	_ = registry.Register("rgb_to_bgr", rgbToBGR)
	_ = registry.Register("has_alpha", hasAlpha)
	_ = registry.Register("lookup", lookup)
	return registry
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("rimepatch: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("rimepatch: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("rimepatch: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("rimepatch: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("rimepatch: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func bgrToRGB(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("bgr_to_rgb: expected 1 argument, got %d", len(args))
	}
	return color.ToDisplay(args[0])
}

func rgbToBGR(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("rgb_to_bgr: expected 1 argument, got %d", len(args))
	}
	display, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("rgb_to_bgr: expected string, got %T", args[0])
	}
	return color.ToStored(display)
}

func hasAlpha(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("has_alpha: expected 1 argument, got %d", len(args))
	}
	channels, err := color.Decode(args[0])
	if err != nil {
		return nil, err
	}
	return channels.HasAlpha, nil
}

// lookup(doc, "menu/page_size") walks plain data by slash path and yields
// nil when the path is absent.
func lookup(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("lookup: expected 2 arguments, got %d", len(args))
	}
	path, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("lookup: path must be a string, got %T", args[1])
	}
	root, ok := tree.FromAny(args[0]).(*tree.Mapping)
	if !ok {
		return nil, nil
	}
	value, found := tree.Get(root, path)
	if !found {
		return nil, nil
	}
	return tree.ToAny(value), nil
}
