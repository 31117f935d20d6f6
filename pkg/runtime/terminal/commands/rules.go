package commands

import (
	"fmt"
	"io"

	"github.com/de-tools/tally/pkg/services/rules"
	"github.com/spf13/cobra"
)

type RulesCmd struct {
	rulesPath string
	output    io.Writer
}

// NewRulesCmd validates a rule file without running a check, which is handy
// when the rules live in a repo and the data does not.
func NewRulesCmd(output io.Writer) *cobra.Command {
	rc := &RulesCmd{output: output}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate a reconciliation rule file",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.rulesPath, "rules", "", "Path to the YAML rule file")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func (rc *RulesCmd) run(cmd *cobra.Command, args []string) error {
	relationships, err := rules.Load(rc.rulesPath)
	if err != nil {
		return err
	}

	for _, rel := range relationships {
		fmt.Fprintf(rc.output, "%s\t%s\ttarget=%s\n", rel.ID, rel.Kind, rel.Target)
	}
	fmt.Fprintf(rc.output, "%d rule(s) OK\n", len(relationships))
	return nil
}
