package core

import (
	"context"

	"pkt.systems/yukora/schema"
)

// Service is the transport-agnostic API for playback consoles. Each hosting view
// opens its own console; consoles never share state.
type Service interface {
	OpenConsole(ctx context.Context, req schema.OpenConsoleRequest) (schema.OpenConsoleResponse, error)
	CloseConsole(ctx context.Context, req schema.CloseConsoleRequest) error
	Trigger(ctx context.Context, req schema.TriggerRequest) (schema.TriggerResponse, error)
	Submit(ctx context.Context, req schema.SubmitRequest) (schema.SubmitResponse, error)
	SetDraft(ctx context.Context, req schema.SetDraftRequest) error
	GetLog(ctx context.Context, req schema.GetLogRequest) (schema.GetLogResponse, error)
	ScrollLog(ctx context.Context, req schema.ScrollLogRequest) (schema.ScrollLogResponse, error)
	ListScripts(ctx context.Context) (schema.ListScriptsResponse, error)
	// Close tears down every open console.
	Close()
}
