package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/tally/pkg/runtime/terminal/export"
	"github.com/de-tools/tally/pkg/services/config"
	"github.com/de-tools/tally/pkg/services/loader"
	"github.com/de-tools/tally/pkg/services/recon"
	"github.com/de-tools/tally/pkg/services/rules"
	"github.com/spf13/cobra"
)

type CheckCmd struct {
	tablePath   string
	rulesPath   string
	sheet       string
	profilePath string
	profile     string
	tolerance   float64
	yellowBand  float64
	format      string
	reporter    *export.Reporter
}

func NewCheckCmd(reporter *export.Reporter) *cobra.Command {
	cc := &CheckCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a table against declared reconciliation rules",
		RunE:  cc.run,
	}

	// Define flags
	cmd.Flags().StringVar(&cc.tablePath, "table", "", "Path to the table file (csv, xlsx or json)")
	cmd.Flags().StringVar(&cc.rulesPath, "rules", "", "Path to the YAML rule file")
	cmd.Flags().StringVar(&cc.sheet, "sheet", "", "Workbook sheet to read (xlsx only, defaults to the first sheet)")
	cmd.Flags().StringVar(&cc.profilePath, "profile-path", "", "Path to the tolerance profile file")
	cmd.Flags().StringVar(&cc.profile, "profile", "", "Named tolerance profile to apply")
	cmd.Flags().Float64Var(&cc.tolerance, "tolerance", 0.01, "Maximum absolute difference still classified as PASS")
	cmd.Flags().Float64Var(&cc.yellowBand, "yellow-band", 1, "Multiplier on the tolerance bounding the YELLOW band (1 disables the band)")
	cmd.Flags().StringVar(&cc.format, "format", "table", "Output format (table or json)")

	// Mark required flags
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func (cc *CheckCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	if err := cc.reporter.SetFormat(export.Format(cc.format)); err != nil {
		return err
	}

	settings, err := cc.resolveSettings(ctx)
	if err != nil {
		return err
	}

	table, err := loader.Load(cc.tablePath, loader.Options{Sheet: cc.sheet})
	if err != nil {
		return fmt.Errorf("failed to load table %q: %w", cc.tablePath, err)
	}

	relationships, err := rules.Load(cc.rulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rules %q: %w", cc.rulesPath, err)
	}

	report, err := recon.Evaluate(table, relationships, settings)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	return cc.reporter.Handle(report)
}

// resolveSettings prefers a named profile over the plain threshold flags.
func (cc *CheckCmd) resolveSettings(ctx context.Context) (recon.Settings, error) {
	if cc.profile == "" {
		return recon.Settings{Tolerance: cc.tolerance, YellowBandFactor: cc.yellowBand}, nil
	}

	if cc.profilePath == "" {
		return recon.Settings{}, fmt.Errorf("--profile requires --profile-path")
	}
	registry, err := config.NewRegistry(cc.profilePath)
	if err != nil {
		return recon.Settings{}, fmt.Errorf("failed to load profiles from %q: %w", cc.profilePath, err)
	}
	return registry.GetSettings(ctx, cc.profile)
}
