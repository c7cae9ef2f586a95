package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bonustrack-dev/bonustrack/internal/activity"
	"github.com/bonustrack-dev/bonustrack/internal/gitops"
	"github.com/bonustrack-dev/bonustrack/internal/id"
	"github.com/bonustrack-dev/bonustrack/internal/parser"
	"github.com/bonustrack-dev/bonustrack/internal/render"
)

func newParseCommand(g *globals) *cobra.Command {
	var (
		save   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "parse <text...>",
		Short: "Extract a bonus from a free-text offer description",
		Long: `Sends the offer text to the configured chat model and prints the bonus it
describes. With --save the bonus is tracked starting today.

Requires BONUSTRACK_API_KEY.`,
		Example: `  bonustrack parse "Get $300 when you open a Chase checking account and deposit $500 within 90 days" --save`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := parser.NewOpenAICompleter(a.cfg.Parser, a.env.APIKey)
			if err != nil {
				return err
			}
			draft, err := parser.New(c, a.logger).Parse(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(draft); err != nil {
					return err
				}
			}

			b := draft.Bonus(id.New(), a.svc.Now())
			if !save {
				if asJSON {
					return nil
				}
				return render.Card(out, b, a.svc.Now())
			}

			added, err := a.svc.Add(cmd.Context(), b)
			if err != nil {
				return err
			}
			a.record(cmd.Context(), activity.Entry{Action: activity.ActionAdd, BonusID: added.ID, Details: "parsed: " + added.Requirements.Deposits.String()},
				gitops.PrefixBonus, "add "+added.BankName+" "+render.Money(added.Amount))
			if asJSON {
				return nil
			}
			if err := render.Card(out, added, a.svc.Now()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved as %s\n", id.Short(added.ID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "track the parsed bonus")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed bonus as JSON")
	return cmd
}
