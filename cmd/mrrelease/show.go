package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mrrelease/internal/release"
	"mrrelease/internal/view"
	"mrrelease/internal/watch"
	"mrrelease/pkg/cmdutil"
)

var (
	showProject  string
	showDetailed bool
	showFailed   bool
	showOrderBy  string
	showWatch    bool
	showExact    bool
	showInterval int
	showCount    int
	showFormat   string
	showOnChange string
)

var showCmd = &cobra.Command{
	Use:   "show FOLDER ENVIRONMENT",
	Short: "Show the latest deployment of each pipeline to an environment",
	Long: `Show the latest completed deployment of every release pipeline in FOLDER to
ENVIRONMENT.

FOLDER is a release folder such as "Team/Web". ENVIRONMENT matches environment names
by case-insensitive prefix, so "Prod" matches "Production" and "Prod-EU". Use --exact
to require the full name.

--format accepts "table", "json" or a Go template applied to each pipeline, for example
'{{.Pipeline}}\t{{.ReleaseName}}\t{{status .Status}}\t{{time .DeployedOn}}'.
Prefix a file name with @ to read the template from a file.

In watch mode --on-change runs a command whenever a pipeline's deployment changes.
The changed pipelines are passed in MR_RELEASE_CHANGED, comma separated.
--count stops watching after that many refreshes.`,
	Example: `  mr-release show Team/Web Production
  mr-release show Team Prod --failed --order-by name
  mr-release show Team Production --format json
  mr-release show Team Production --watch --interval 30 --on-change 'notify-send "Releases changed"'`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showProject, "project", "p", "", "Project name (default: project from settings)")
	showCmd.Flags().BoolVarP(&showDetailed, "detailed", "d", false, "Show detailed information")
	showCmd.Flags().BoolVarP(&showFailed, "failed", "f", false, "Show only failed and partial status releases")
	showCmd.Flags().StringVarP(&showOrderBy, "order-by", "o", "deployedon", "Sort order: deployedon, name")
	showCmd.Flags().BoolVarP(&showWatch, "watch", "w", false, "Refresh the output until interrupted")
	showCmd.Flags().BoolVar(&showExact, "exact", false, "Match the environment name exactly instead of by prefix")
	showCmd.Flags().IntVar(&showInterval, "interval", 0, "Seconds between refreshes in watch mode (default: refresh_seconds from settings)")
	showCmd.Flags().IntVar(&showCount, "count", 0, "Stop watch mode after this many refreshes (default: until interrupted)")
	showCmd.Flags().StringVar(&showFormat, "format", "table", "Output format: table, json or a Go template")
	showCmd.Flags().StringVar(&showOnChange, "on-change", "", "Command to run in watch mode when a deployment changes")
}

// showCommand holds everything one invocation of show needs.
type showCommand struct {
	service  *release.Service
	query    release.Query
	options  view.Options
	output   view.Output
	out      io.Writer
	tty      bool
	renderer *view.Renderer
	logger   *slog.Logger

	count    int
	hook     *cmdutil.Hook
	previous []release.Deployed
	baseline bool
}

func runShow(cmd *cobra.Command, args []string) error {
	order, err := view.ParseOrder(showOrderBy)
	if err != nil {
		return err
	}
	output, err := view.ParseOutput(showFormat, showDetailed)
	if err != nil {
		return err
	}
	if showInterval < 0 {
		return fmt.Errorf("interval must be a positive number of seconds, got %d", showInterval)
	}
	if showCount < 0 {
		return fmt.Errorf("count cannot be negative, got %d", showCount)
	}

	var hook *cmdutil.Hook
	if showOnChange != "" {
		if !showWatch {
			return fmt.Errorf("--on-change requires --watch")
		}
		if hook, err = cmdutil.ParseHook(showOnChange, cmdutil.DefaultTimeout); err != nil {
			return err
		}
	}

	s, err := loadSettings(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if hook != nil {
		hook.Secrets = []string{s.PersonalAccessToken, s.AccessToken}
	}

	logger := newCLILogger(cmd.ErrOrStderr(), verbose)
	client, err := newClient(s, logger, nil)
	if err != nil {
		return err
	}

	query := release.Query{
		Project:          s.Project,
		Folder:           args[0],
		Environment:      args[1],
		ExactEnvironment: showExact,
	}
	if showProject != "" {
		query.Project = showProject
	}

	out := cmd.OutOrStdout()
	sc := &showCommand{
		service:  release.NewService(client, logger),
		query:    query,
		options:  view.Options{Order: order, OnlyFailed: showFailed},
		output:   output,
		out:      out,
		tty:      isTerminal(out) && output.Decorated(),
		renderer: view.NewRenderer(out, query.Matcher()),
		logger:   logger,
		count:    showCount,
		hook:     hook,
	}

	if !showWatch {
		return sc.once(cmd.Context())
	}

	interval := time.Duration(s.RefreshSeconds) * time.Second
	if showInterval > 0 {
		interval = time.Duration(showInterval) * time.Second
	}
	return sc.watch(cmd.Context(), interval)
}

func (sc *showCommand) once(ctx context.Context) error {
	if sc.output.Decorated() {
		sc.renderer.Header(sc.query.Folder, sc.query.Environment)
	}

	items, err := sc.fetch(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 && sc.output.Decorated() {
		sc.renderer.Failure("No releases.")
		return &exitError{code: 1}
	}

	if err := sc.renderer.Write(items, sc.output); err != nil {
		return err
	}
	if len(items) == 0 {
		return &exitError{code: 1}
	}
	return nil
}

func (sc *showCommand) watch(ctx context.Context, interval time.Duration) error {
	loop := watch.New(interval, func(remaining time.Duration) {
		if !sc.output.Decorated() {
			return
		}
		seconds := int((remaining + time.Second - 1) / time.Second)
		caption := fmt.Sprintf("Refresh in %ds", seconds)
		switch {
		case sc.tty:
			fmt.Fprint(sc.out, view.ClearLine)
			fmt.Fprint(sc.out, caption)
		case remaining == interval:
			sc.renderer.Caption(caption)
		}
	})

	err := loop.Run(ctx, func(ctx context.Context, cycle int) error {
		if sc.tty && cycle > 1 {
			fmt.Fprint(sc.out, view.ClearLine+"Loading...")
		}

		items, err := sc.fetch(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if sc.tty {
			fmt.Fprint(sc.out, view.ClearScreen)
		}
		if sc.output.Decorated() {
			sc.renderer.Header(sc.query.Folder, sc.query.Environment)
		}
		switch {
		case err != nil:
			sc.renderer.Failure(err.Error())
		case len(items) == 0 && sc.output.Decorated():
			sc.renderer.Failure("No releases.")
			sc.notify(ctx, items)
		default:
			if err := sc.renderer.Write(items, sc.output); err != nil {
				return err
			}
			sc.notify(ctx, items)
		}

		if sc.count > 0 && cycle >= sc.count {
			return watch.ErrStop
		}
		return nil
	})

	if sc.tty {
		fmt.Fprintln(sc.out)
	}
	return err
}

// notify runs the change hook when the snapshot differs from the last successful one.
// The first successful snapshot only sets the baseline.
func (sc *showCommand) notify(ctx context.Context, items []release.Deployed) {
	previous, hadBaseline := sc.previous, sc.baseline
	sc.previous, sc.baseline = items, true
	if sc.hook == nil || !hadBaseline {
		return
	}

	changed := release.Changed(previous, items)
	if len(changed) == 0 {
		return
	}

	sc.logger.Debug("Deployments changed, running hook", "pipelines", changed, "command", sc.hook.String())
	result, err := sc.hook.Run(ctx,
		"MR_RELEASE_CHANGED="+strings.Join(changed, ","),
		"MR_RELEASE_FOLDER="+sc.query.Folder,
		"MR_RELEASE_ENVIRONMENT="+sc.query.Environment)
	if err != nil {
		output := ""
		if result != nil {
			output = string(result.Output)
		}
		sc.logger.Warn("Change hook failed", "command", sc.hook.String(), "error", err, "output", output)
		return
	}
	sc.logger.Debug("Change hook finished", "duration_ms", result.Duration.Milliseconds())
}

// fetch resolves and orders the deployed releases, reporting progress on terminals.
func (sc *showCommand) fetch(ctx context.Context) ([]release.Deployed, error) {
	sc.progress(view.ProgressIndeterminate)

	deployed, err := sc.service.DeployedReleases(ctx, sc.query)
	if err != nil {
		sc.progress(view.ProgressError(100))
		return nil, err
	}

	items := sc.options.Apply(deployed)
	if len(items) == 0 {
		sc.progress(view.ProgressWarning(100))
	} else {
		sc.progress(view.ProgressReset)
	}
	return items, nil
}

func (sc *showCommand) progress(sequence string) {
	if sc.tty {
		fmt.Fprint(sc.out, sequence)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
