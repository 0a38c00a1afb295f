package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/imovia/fluxo"
	"github.com/imovia/fluxo/internal/presentation/tui"
	"github.com/imovia/fluxo/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Flow         string
	ContactName  string
	ContactPhone string
	Real         bool
	Headless     bool
	Input        io.Reader
	Output       io.Writer
}

// RunSimulator drives one conversation of opts.Flow on the terminal.
// The run goes through the session manager so the transcript is archived the
// same way the HTTP host archives it.
func RunSimulator(ctx context.Context, app *App, opts RunOptions) error {
	def, name, err := ResolveFlow(app.Loader, opts.Flow)
	if err != nil {
		return err
	}

	in, out := opts.Input, opts.Output
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	cfg := app.Config.RunConfig()
	cfg.ContactName = opts.ContactName
	cfg.ContactPhone = opts.ContactPhone
	cfg.UseRealIntegrations = cfg.UseRealIntegrations || opts.Real

	r := &fluxo.Runner{
		Input:        NewInterruptibleReader(in, ctx.Done()),
		Output:       out,
		Headless:     opts.Headless,
		MaxInputSize: app.Config.Server.MaxInputSize,
	}
	if !opts.Headless && isTerminal(out) {
		tui.PrintBanner(out)
		r.Renderer = tui.NewRenderer()
		r.System = tui.SystemStyle()
	}

	run := app.Manager.NewRun(def, cfg)
	app.Logger.Debug("Simulator started", "run_id", run.ID(), "flow", name)
	err = r.Run(ctx, run)
	app.Manager.Archive(ctx, run, name)

	if err := HandleExecutionError(err); err != nil {
		return err
	}
	if !opts.Headless && run.Status() == domain.StatusCompleted {
		fmt.Fprintf(out, "\nConversa finalizada (%d nós visitados).\n", len(run.VisitedNodes()))
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
