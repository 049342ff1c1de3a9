package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/yukora/core"
	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/internal/version"
	"pkt.systems/yukora/schema"
)

// HandlerConfig configures slash command behavior.
type HandlerConfig struct {
	DisableAuditLogging bool
}

// Result is the outcome of a handled slash command. Notices are shown by the
// host next to the console log; they never enter the playback log.
type Result struct {
	Notices []string
	Trigger *schema.TriggerResponse
	Exit    bool
}

// Handler routes slash commands to service operations.
type Handler struct {
	service core.Service
	cfg     HandlerConfig
}

// NewHandler constructs a command handler.
func NewHandler(service core.Service, cfg HandlerConfig) *Handler {
	return &Handler{service: service, cfg: cfg}
}

// Handle inspects input and executes slash commands. It reports false when
// input is not a slash command and should be submitted to the console.
func (h *Handler) Handle(ctx context.Context, consoleID schema.ConsoleID, input string) (Result, bool, error) {
	if ctx == nil {
		return Result{}, false, errors.New("missing context")
	}
	cmd, ok := Parse(input)
	if !ok {
		return Result{}, false, nil
	}
	log := logx.WithConsole(ctx, consoleID)
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_type", "slash", "command", strings.TrimSpace(input))
	}
	log = log.With("command", cmd.Name, "args", len(cmd.Args))
	log.Info("command slash request")
	switch cmd.Name {
	case "":
		log.Warn("command slash rejected", "reason", "empty")
		return Result{}, true, errors.New("invalid command")
	case "play", "run":
		res, err := h.handlePlay(ctx, consoleID, cmd)
		return res, true, err
	case "scripts", "ls":
		res, err := h.handleScripts(ctx)
		return res, true, err
	case "help", "?":
		return Result{Notices: HelpLines()}, true, nil
	case "version":
		return Result{Notices: []string{version.Read().String()}}, true, nil
	case "exit", "quit", "q":
		return Result{Exit: true}, true, nil
	default:
		log.Warn("command slash rejected", "reason", "unknown")
		return Result{}, true, fmt.Errorf("unknown command: /%s", cmd.Name)
	}
}

func (h *Handler) handlePlay(ctx context.Context, consoleID schema.ConsoleID, cmd Command) (Result, error) {
	if len(cmd.Args) != 1 {
		return Result{}, errors.New("usage: /play <script>")
	}
	resp, err := h.service.Trigger(ctx, schema.TriggerRequest{ConsoleID: consoleID, Script: schema.ScriptName(cmd.Args[0])})
	if err != nil {
		return Result{}, err
	}
	res := Result{Trigger: &resp}
	if !resp.Accepted {
		res.Notices = []string{"playback already running"}
	}
	return res, nil
}

func (h *Handler) handleScripts(ctx context.Context) (Result, error) {
	resp, err := h.service.ListScripts(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Notices: ScriptLines(resp)}, nil
}

// HelpLines lists the slash commands.
func HelpLines() []string {
	return []string{
		"commands:",
		"  /play <script>  run a demo script",
		"  /scripts        list scripts and console routes",
		"  /version        show build version",
		"  /exit           close the console",
		"anything else is sent to the console",
	}
}

// ScriptLines formats a catalog listing.
func ScriptLines(resp schema.ListScriptsResponse) []string {
	width := 0
	for _, script := range resp.Scripts {
		if n := len(script.Name); n > width {
			width = n
		}
	}
	lines := make([]string, 0, len(resp.Scripts)+len(resp.Routes)+2)
	lines = append(lines, "scripts:")
	for _, script := range resp.Scripts {
		lines = append(lines, fmt.Sprintf("  %-*s  %-28s %2d lines  %s", width, script.Name, script.Title, script.Lines, script.Duration))
	}
	lines = append(lines, "console routes:")
	for _, route := range resp.Routes {
		lines = append(lines, fmt.Sprintf("  %s: %s -> %s", route.Name, route.Matcher, route.Script))
	}
	return lines
}
