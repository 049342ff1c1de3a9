package core

import (
	"pkt.systems/pslog"
	"pkt.systems/yukora/internal/clock"
	"pkt.systems/yukora/schema"
)

// Catalog provides the scripts that can be triggered by name.
type Catalog interface {
	Script(name schema.ScriptName) (schema.Script, bool)
	Scripts() []schema.Script
}

// ServiceDeps captures dependencies for the core service.
type ServiceDeps struct {
	Catalog   Catalog
	Registry  *Registry
	Clock     clock.Clock
	EventSink EventSink
	Logger    pslog.Logger
}
