package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	suction "Ventosa/internal/calc/suction"
	"Ventosa/internal/catalog"
	"Ventosa/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "selector",
		Short:        "Size and select suction cups from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("options", "", "YAML file with coefficient and option tables")
	root.AddCommand(newForceCmd(), newSearchCmd())
	return root
}

func loadOptions(cmd *cobra.Command) (config.Options, error) {
	path, _ := cmd.Flags().GetString("options")
	return config.LoadOptions(path)
}

func newForceCmd() *cobra.Command {
	var req suction.CalcRequest
	cmd := &cobra.Command{
		Use:   "force",
		Short: "Compute the suction force required per cup",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			res, err := computeForce(opts, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Force per cup: %.2f N\nTotal force: %.2f N (%d cups)\n",
				res.ForcePerCupN, res.TotalForceN, res.CupCount)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&req.MassKg, "mass", 0, "part mass in kg")
	f.Float64Var(&req.AccelerationMps2, "accel", 0, "installation acceleration in m/s²")
	f.IntVar(&req.CupCount, "cups", 1, "number of suction cups")
	f.StringVar(&req.Pick, "pick", "vertical", "part position when picked: vertical|horizontal")
	f.StringVar(&req.Movement, "movement", "vertical", "movement: vertical|horizontal|two_directions_rotation")
	f.StringVar(&req.SurfaceType, "surface", "", "surface type name from the option table")
	f.StringVar(&req.SafetyFactor, "safety", "", "safety coefficient name from the option table")
	return cmd
}

func computeForce(opts config.Options, req suction.CalcRequest) (suction.Result, error) {
	if req.CupCount < 1 {
		return suction.Result{}, fmt.Errorf("cups must be at least 1")
	}
	pick, err := suction.ParsePick(req.Pick)
	if err != nil {
		return suction.Result{}, err
	}
	mov, err := suction.ParseMovement(req.Movement)
	if err != nil {
		return suction.Result{}, err
	}
	sf, ok := opts.SurfaceFactor(req.SurfaceType)
	if !ok {
		return suction.Result{}, fmt.Errorf("unknown surface type %q", req.SurfaceType)
	}
	k, ok := opts.SafetyFactor(req.SafetyFactor)
	if !ok {
		return suction.Result{}, fmt.Errorf("unknown safety coefficient %q", req.SafetyFactor)
	}
	return suction.Calculate(suction.Input{
		MassKg:           req.MassKg,
		AccelerationMps2: req.AccelerationMps2,
		CupCount:         req.CupCount,
		SafetyFactor:     k,
		SurfaceFactor:    sf,
		Pick:             pick,
		Movement:         mov,
	})
}

func newSearchCmd() *cobra.Command {
	var (
		path      string
		tolerance string
		crit      catalog.Criteria
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Filter the catalog by force, material, surface and application",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := catalog.ParsePolicy(tolerance)
			if err != nil {
				return err
			}
			cat, err := catalog.SheetSource{Path: path}.LoadCatalog(context.Background())
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), cat.Filter(crit, policy))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&path, "catalog", "ventosas.xlsx", "catalog workbook")
	f.StringVar(&tolerance, "tolerance", "none", "force tolerance: none|upper_band_20")
	f.Float64Var(&crit.RequiredForce, "force", 0, "required force per cup in N")
	f.StringVar(&crit.Material, "material", "", "cup material")
	f.StringVar(&crit.Surface, "surface", "", "part surface")
	f.StringVar(&crit.Application, "application", "", "application")
	if err := cmd.MarkFlagRequired("force"); err != nil {
		panic(err)
	}
	return cmd
}

func printCatalog(w io.Writer, cat catalog.Catalog) {
	if cat.Len() == 0 {
		fmt.Fprintln(w, catalog.NoMatchesMessage)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range cat.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range cat.Rows {
		for i, c := range cat.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, row.Attributes[c])
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}
