package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/pslog"
	"pkt.systems/yukora/internal/appconfig"
	"pkt.systems/yukora/internal/format"
	"pkt.systems/yukora/schema"
)

// playPrinter writes revealed lines as they arrive and signals when the
// console returns to idle.
type playPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	renderer lineRenderer
	err      error
	done     chan struct{}
	once     sync.Once
}

func newPlayPrinter(out io.Writer, renderer lineRenderer) *playPrinter {
	return &playPrinter{out: out, renderer: renderer, done: make(chan struct{})}
}

func (p *playPrinter) OnOutput(event schema.OutputEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	for _, line := range event.Lines {
		if _, err := io.WriteString(p.out, p.renderer.FormatLine(line)+"\n"); err != nil {
			p.err = err
			return
		}
	}
}

func (p *playPrinter) OnStatus(event schema.StatusEvent) {
	if event.Status == schema.StatusIdle {
		p.finish()
	}
}

func (p *playPrinter) OnConsoleEvent(event schema.ConsoleEvent) {
	if event.Type == schema.ConsoleEventClosed {
		p.finish()
	}
}

func (p *playPrinter) finish() {
	p.once.Do(func() { close(p.done) })
}

func (p *playPrinter) writeErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func newPlayCmd() *cobra.Command {
	var opts runtimeOptions
	var input string
	var plain bool
	var showStyle bool
	cmd := &cobra.Command{
		Use:   "play [script]",
		Short: "Play a script, or one console command with --input, to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (input != "") {
				return errors.New("give either a script name or --input")
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var renderer lineRenderer = &format.PlainRenderer{ShowStyle: showStyle}
			if !plain && !showStyle && isTerminal(out) {
				renderer = newStyles(themeName(cfg))
			}
			printer := newPlayPrinter(out, renderer)
			return playOnce(cmd.Context(), cfg, printer, args, input)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&opts.scriptFile, "scripts", "", "YAML script pack (overrides scripts.file)")
	cmd.Flags().Float64Var(&opts.timeScale, "time-scale", 0, "multiply every script delay (overrides console.time_scale)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "colour theme")
	cmd.Flags().StringVarP(&input, "input", "i", "", "submit text to the console instead of playing a script")
	cmd.Flags().BoolVar(&plain, "plain", false, "never colour output")
	cmd.Flags().BoolVar(&showStyle, "show-style", false, "prefix each line with its style tag")
	return cmd
}

func playOnce(ctx context.Context, cfg appconfig.Config, printer *playPrinter, args []string, input string) error {
	service, err := newLocalService(ctx, cfg, printer)
	if err != nil {
		return err
	}
	defer service.Close()

	opened, err := service.OpenConsole(ctx, schema.OpenConsoleRequest{Owner: "play"})
	if err != nil {
		return err
	}
	log := pslog.Ctx(ctx).With("console", opened.ConsoleID)
	if input != "" {
		resp, err := service.Submit(ctx, schema.SubmitRequest{ConsoleID: opened.ConsoleID, Input: input})
		if err != nil {
			return err
		}
		if !resp.Accepted {
			return fmt.Errorf("%w: %q", schema.ErrEmptyInput, strings.TrimSpace(input))
		}
		log.Debug("play submitted", "route", resp.Route)
	} else {
		resp, err := service.Trigger(ctx, schema.TriggerRequest{ConsoleID: opened.ConsoleID, Script: schema.ScriptName(args[0])})
		if err != nil {
			return err
		}
		if !resp.Accepted {
			return schema.ErrSessionRunning
		}
		log.Debug("play triggered", "script", args[0])
	}

	select {
	case <-printer.done:
		return printer.writeErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
