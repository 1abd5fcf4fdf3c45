package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/cmd/util"
	"github.com/mpapenbr/beyond-the-apex/pkg/config"
	"github.com/mpapenbr/beyond-the-apex/pkg/dashboard"
	"github.com/mpapenbr/beyond-the-apex/pkg/render"
)

type options struct {
	year    int
	race    string
	session string
	drivers string
	outDir  string
	season  bool
}

var opts options

func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "loads a session and writes its charts to files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := util.SetupLogger(); err != nil {
				return err
			}
			cfg, err := config.Resolve()
			if err != nil {
				return err
			}
			d := dashboard.New(util.NewFetchClient(cfg), dashboard.WithDrivers(opts.drivers))
			defer d.Close()
			return run(cmd.Context(), d, opts)
		},
	}
	cmd.Flags().IntVar(&opts.year, "year", 0, "season (default: newest)")
	cmd.Flags().StringVar(&opts.race, "race", "", "race name (default: first race of the season)")
	cmd.Flags().StringVar(&opts.session, "session", "", "session name (default: qualifying)")
	cmd.Flags().StringVar(&opts.drivers, "drivers", "VER,HAM", "comma separated driver codes")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&opts.season, "season", false, "render the championship standings as well")
	return cmd
}

//nolint:cyclop // sequential steps
func run(ctx context.Context, d *dashboard.Dashboard, o options) error {
	if err := d.Init(ctx); err != nil {
		return err
	}
	if o.year > 0 {
		if err := d.SelectYear(ctx, o.year); err != nil {
			return err
		}
	}
	if o.race != "" {
		if err := d.SelectRace(ctx, o.race); err != nil {
			return fmt.Errorf("race %q: %w", o.race, err)
		}
	}
	if o.session != "" {
		if err := d.SelectSession(o.session); err != nil {
			return fmt.Errorf("session %q: %w", o.session, err)
		}
	}
	if err := d.Load(ctx); err != nil {
		return err
	}
	s := d.Snapshot()
	title := fmt.Sprintf("%d %s - %s", s.Selection.Year, s.Selection.Race, s.Selection.Session)
	log.Info("rendering", log.String("session", title), log.String("kind", s.Kind))

	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return err
	}
	if s.Telemetry != nil {
		if err := writeFile(o.outDir, "telemetry.html", func(w io.Writer) error {
			return render.TelemetryPage(w, title, s.Telemetry)
		}); err != nil {
			return err
		}
		if err := writeFile(o.outDir, "track.png", func(w io.Writer) error {
			return render.TrackMap(w, s.Telemetry.Track, render.WithTitle(s.Selection.Race))
		}); err != nil {
			return err
		}
	}
	if s.Laps != nil {
		if err := writeFile(o.outDir, "laps.html", func(w io.Writer) error {
			return render.LapScatter(w, title, s.Laps)
		}); err != nil {
			return err
		}
		for _, insight := range s.Insights {
			log.Info("insight", log.String("text", insight))
		}
	}
	if o.season {
		if err := d.LoadSeason(ctx, s.Selection.Year); err != nil {
			return err
		}
		season := d.Snapshot().Season
		if err := writeFile(o.outDir, "standings.html", func(w io.Writer) error {
			return render.StandingsBar(w, "Championship", season)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(dir, name string, fn func(io.Writer) error) (err error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err = fn(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Info("written", log.String("file", path))
	return nil
}
