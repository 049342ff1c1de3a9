package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/yukora/schema"
)

// DefaultRouteName is reported when no route matches a command.
const DefaultRouteName = "default"

// Matcher decides whether a console command selects a route.
type Matcher interface {
	Match(command string) bool
	String() string
}

// MatcherFunc adapts a predicate to a Matcher.
type MatcherFunc func(command string) bool

// Match calls f(command).
func (f MatcherFunc) Match(command string) bool {
	return f(command)
}

func (f MatcherFunc) String() string {
	return "func"
}

type containsMatcher string

func (m containsMatcher) Match(command string) bool {
	return strings.Contains(strings.ToLower(command), string(m))
}

func (m containsMatcher) String() string {
	return fmt.Sprintf("contains %q", string(m))
}

// Contains matches commands containing substr, ignoring case.
func Contains(substr string) Matcher {
	return containsMatcher(strings.ToLower(substr))
}

type prefixMatcher string

func (m prefixMatcher) Match(command string) bool {
	return strings.HasPrefix(strings.ToLower(command), string(m))
}

func (m prefixMatcher) String() string {
	return fmt.Sprintf("prefix %q", string(m))
}

// HasPrefix matches commands starting with prefix, ignoring case.
func HasPrefix(prefix string) Matcher {
	return prefixMatcher(strings.ToLower(prefix))
}

type wordsMatcher []string

func (m wordsMatcher) Match(command string) bool {
	if len(m) == 0 {
		return false
	}
	fields := strings.Fields(strings.ToLower(command))
	for _, want := range m {
		found := false
		for _, field := range fields {
			if field == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m wordsMatcher) String() string {
	return "words " + strings.Join(m, " ")
}

// AllWords matches commands containing every word as a whitespace separated
// field, ignoring case and order.
func AllWords(words ...string) Matcher {
	out := make(wordsMatcher, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			out = append(out, word)
		}
	}
	return out
}

type anyMatcher struct{}

func (anyMatcher) Match(string) bool { return true }
func (anyMatcher) String() string    { return "any" }

// Any matches every command.
func Any() Matcher {
	return anyMatcher{}
}

type route struct {
	name    string
	matcher Matcher
	script  schema.Script
}

// Registry maps console commands to scripts. Routes are tried in registration
// order and the first match wins; unmatched commands get the default script.
type Registry struct {
	mu     sync.RWMutex
	routes []route
	def    schema.Script
}

// NewRegistry returns an empty registry whose default script is def.
func NewRegistry(def schema.Script) *Registry {
	return &Registry{def: def.Clone()}
}

// Register appends a route after every existing route.
func (r *Registry) Register(name string, matcher Matcher, script schema.Script) error {
	name = strings.TrimSpace(name)
	if name == "" || name == DefaultRouteName {
		return fmt.Errorf("%w: route name %q", schema.ErrInvalidRequest, name)
	}
	if matcher == nil {
		return errors.New("route requires a matcher")
	}
	if err := schema.ValidateScript(script); err != nil {
		return fmt.Errorf("route %s: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{name: name, matcher: matcher, script: script.Clone()})
	return nil
}

// SetDefault replaces the script played for unmatched commands.
func (r *Registry) SetDefault(script schema.Script) error {
	if err := schema.ValidateScript(script); err != nil {
		return fmt.Errorf("default route: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = script.Clone()
	return nil
}

// Default returns a copy of the default script.
func (r *Registry) Default() schema.Script {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def.Clone()
}

// Resolve returns the script for command and the name of the route that
// selected it.
func (r *Registry) Resolve(command string) (schema.Script, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.routes {
		if rt.matcher.Match(command) {
			return rt.script.Clone(), rt.name
		}
	}
	return r.def.Clone(), DefaultRouteName
}

// Routes lists the routes in priority order, ending with the default.
func (r *Registry) Routes() []schema.RouteSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schema.RouteSummary, 0, len(r.routes)+1)
	for _, rt := range r.routes {
		out = append(out, schema.RouteSummary{Name: rt.name, Matcher: rt.matcher.String(), Script: rt.script.Name})
	}
	out = append(out, schema.RouteSummary{Name: DefaultRouteName, Matcher: "otherwise", Script: r.def.Name})
	return out
}
