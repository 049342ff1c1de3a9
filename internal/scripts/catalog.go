package scripts

import (
	"fmt"

	"pkt.systems/yukora/schema"
)

// Catalog is an ordered set of named scripts. It is safe for concurrent reads
// once built.
type Catalog struct {
	order   []schema.ScriptName
	scripts map[schema.ScriptName]schema.Script
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{scripts: make(map[schema.ScriptName]schema.Script)}
}

// Put validates script and stores a copy, replacing any script of the same name
// in place.
func (c *Catalog) Put(script schema.Script) error {
	name, err := schema.NormalizeScriptName(string(script.Name))
	if err != nil {
		return fmt.Errorf("%w: %q", err, script.Name)
	}
	script.Name = name
	if err := schema.ValidateScript(script); err != nil {
		return err
	}
	if _, exists := c.scripts[name]; !exists {
		c.order = append(c.order, name)
	}
	c.scripts[name] = script.Clone()
	return nil
}

// Script returns a copy of the named script.
func (c *Catalog) Script(name schema.ScriptName) (schema.Script, bool) {
	script, ok := c.scripts[name]
	if !ok {
		return schema.Script{}, false
	}
	return script.Clone(), true
}

// Scripts returns copies of every script in insertion order.
func (c *Catalog) Scripts() []schema.Script {
	out := make([]schema.Script, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.scripts[name].Clone())
	}
	return out
}

// Len reports the number of scripts.
func (c *Catalog) Len() int {
	return len(c.order)
}
