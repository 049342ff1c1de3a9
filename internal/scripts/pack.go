package scripts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/schema"
)

// Pack is a user-supplied set of scripts and console routes.
type Pack struct {
	// ReplaceBuiltin drops the built-in scripts and routes.
	ReplaceBuiltin bool         `yaml:"replace_builtin"`
	Scripts        []PackScript `yaml:"scripts"`
	Routes         []PackRoute  `yaml:"routes"`
	// Default names the script played for unmatched console input.
	Default string `yaml:"default"`
}

// PackScript is the YAML form of a script.
type PackScript struct {
	Name  string     `yaml:"name"`
	Title string     `yaml:"title"`
	Lines []PackLine `yaml:"lines"`
}

// PackLine is the YAML form of a script entry.
type PackLine struct {
	Text    string `yaml:"text"`
	DelayMS int    `yaml:"delay_ms"`
}

// PackRoute is the YAML form of a console route.
type PackRoute struct {
	Name    string   `yaml:"name"`
	Match   string   `yaml:"match"`
	Pattern string   `yaml:"pattern"`
	Words   []string `yaml:"words"`
	Script  string   `yaml:"script"`
}

// Match kinds accepted by PackRoute.Match.
const (
	MatchContains = "contains"
	MatchPrefix   = "prefix"
	MatchWords    = "words"
	MatchAny      = "any"
)

// LoadPack reads a script pack from a YAML file.
func LoadPack(path string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pack, err := DecodePack(f)
	if err != nil {
		return nil, fmt.Errorf("script pack %s: %w", path, err)
	}
	return pack, nil
}

// ParsePack decodes a script pack from YAML bytes.
func ParsePack(data []byte) (*Pack, error) {
	return DecodePack(bytes.NewReader(data))
}

// DecodePack decodes a script pack. Unknown keys are rejected.
func DecodePack(r io.Reader) (*Pack, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var pack Pack
	if err := dec.Decode(&pack); err != nil {
		if errors.Is(err, io.EOF) {
			return &pack, nil
		}
		return nil, err
	}
	return &pack, nil
}

func (p PackScript) script() (schema.Script, error) {
	script := schema.Script{
		Name:    schema.ScriptName(p.Name),
		Title:   p.Title,
		Entries: make([]schema.ScriptEntry, 0, len(p.Lines)),
	}
	for i, l := range p.Lines {
		if l.DelayMS < 0 {
			return schema.Script{}, fmt.Errorf("%w: %s line %d: negative delay_ms", schema.ErrInvalidScript, p.Name, i)
		}
		script.Entries = append(script.Entries, schema.ScriptEntry{
			Text:  l.Text,
			Delay: time.Duration(l.DelayMS) * time.Millisecond,
		})
	}
	return script, nil
}

func (r PackRoute) matcher() (core.Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(r.Match)) {
	case MatchContains, "":
		if r.Pattern == "" {
			return nil, fmt.Errorf("route %s: contains requires a pattern", r.Name)
		}
		return core.Contains(r.Pattern), nil
	case MatchPrefix:
		if r.Pattern == "" {
			return nil, fmt.Errorf("route %s: prefix requires a pattern", r.Name)
		}
		return core.HasPrefix(r.Pattern), nil
	case MatchWords:
		words := r.Words
		if len(words) == 0 {
			words = strings.Fields(r.Pattern)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("route %s: words requires words or a pattern", r.Name)
		}
		return core.AllWords(words...), nil
	case MatchAny:
		return core.Any(), nil
	default:
		return nil, fmt.Errorf("route %s: unknown match %q", r.Name, r.Match)
	}
}

// Build assembles the catalog and console registry from the built-ins and an
// optional pack. Pack scripts replace built-ins of the same name; pack routes
// are tried after the built-in routes.
func Build(pack *Pack) (*Catalog, *core.Registry, error) {
	if pack == nil {
		pack = &Pack{}
	}
	catalog := NewCatalog()
	var routes []ConsoleRoute
	if !pack.ReplaceBuiltin {
		for _, script := range append(Builtins(), ConsoleScripts()...) {
			if err := catalog.Put(script); err != nil {
				return nil, nil, err
			}
		}
		routes = ConsoleRoutes()
	}
	for _, ps := range pack.Scripts {
		script, err := ps.script()
		if err != nil {
			return nil, nil, err
		}
		if err := catalog.Put(script); err != nil {
			return nil, nil, err
		}
	}
	for _, pr := range pack.Routes {
		matcher, err := pr.matcher()
		if err != nil {
			return nil, nil, err
		}
		name, err := schema.NormalizeScriptName(pr.Script)
		if err != nil {
			return nil, nil, fmt.Errorf("route %s: %w", pr.Name, err)
		}
		routes = append(routes, ConsoleRoute{Name: pr.Name, Matcher: matcher, Script: name})
	}

	defName := DefaultScriptName
	if pack.Default != "" {
		name, err := schema.NormalizeScriptName(pack.Default)
		if err != nil {
			return nil, nil, fmt.Errorf("default: %w", err)
		}
		defName = name
	}
	def, ok := catalog.Script(defName)
	if !ok {
		return nil, nil, fmt.Errorf("default: %w: %s", schema.ErrUnknownScript, defName)
	}
	registry := core.NewRegistry(def)
	for _, rt := range routes {
		script, ok := catalog.Script(rt.Script)
		if !ok {
			return nil, nil, fmt.Errorf("route %s: %w: %s", rt.Name, schema.ErrUnknownScript, rt.Script)
		}
		if err := registry.Register(rt.Name, rt.Matcher, script); err != nil {
			return nil, nil, err
		}
	}
	return catalog, registry, nil
}

// Open builds the catalog and registry, loading the pack at path when set.
func Open(path string) (*Catalog, *core.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Build(nil)
	}
	pack, err := LoadPack(path)
	if err != nil {
		return nil, nil, err
	}
	return Build(pack)
}
