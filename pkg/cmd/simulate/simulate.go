package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/championship"
	"github.com/mpapenbr/beyond-the-apex/pkg/cmd/util"
	"github.com/mpapenbr/beyond-the-apex/pkg/config"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

// File is the content of a predictions file (YAML or JSON).
//
// Example:
//
//	year: 2024
//	rounds:
//	  - round: 21
//	    race: {1: NOR, 2: VER, 3: LEC}
//	    sprint: {1: NOR}
type File struct {
	Year   int                     `json:"year" yaml:"year"`
	Rounds []model.RoundPrediction `json:"rounds" yaml:"rounds"`
}

var (
	year   int
	output string
)

func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <predictions-file>",
		Short: "projects the championship standings for predicted results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulate(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "season to use (overrides the year of the file)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	return cmd
}

func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(data)
}

// ParseFile parses YAML or JSON content. JSON is decoded separately since
// its object keys are strings while positions are ints.
func ParseFile(data []byte) (*File, error) {
	ret := &File{}
	var err error
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, ret)
	} else {
		err = yaml.Unmarshal(data, ret)
	}
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Predictions converts the file rounds, later entries for the same round win
func (f *File) Predictions() model.Predictions {
	ret := model.Predictions{}
	for i := range f.Rounds {
		rp := f.Rounds[i]
		ret[rp.Round] = &rp
	}
	return ret
}

func simulate(ctx context.Context, path string, out io.Writer) error {
	if _, err := util.SetupLogger(); err != nil {
		return err
	}
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	f, err := ReadFile(path)
	if err != nil {
		return err
	}
	if year > 0 {
		f.Year = year
	}
	if f.Year == 0 {
		return fmt.Errorf("%s: no season given", path)
	}
	client := util.NewFetchClient(cfg)
	standings, err := client.Standings(ctx, f.Year)
	if err != nil {
		return err
	}
	schedule, err := client.Schedule(ctx, f.Year)
	if err != nil {
		return err
	}
	log.Debug("simulating", log.Int("year", f.Year), log.Int("rounds", len(f.Rounds)))
	p := championship.NewPredictor(*standings, schedule,
		championship.WithPredictions(f.Predictions()))

	switch output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p.Standings())
	default:
		return WriteTable(out, p.Base(), p.Standings())
	}
}

// WriteTable prints projected standings next to the base points
func WriteTable(out io.Writer, base, projected model.Standings) error {
	before := map[string]string{}
	for _, d := range base.Drivers {
		before[d.Code] = d.Points.String()
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tDRIVER\tTEAM\tPOINTS\tBEFORE")
	for _, d := range projected.Drivers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.Position, d.Code, d.Team, d.Points, before[d.Code])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "POS\tCONSTRUCTOR\tPOINTS")
	for _, c := range projected.Constructors {
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.Position, c.Team, c.Points)
	}
	return w.Flush()
}
