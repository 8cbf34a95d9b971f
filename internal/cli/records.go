package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sumator/internal/aggregate"
	"sumator/internal/core"
	"sumator/internal/filter"
	"sumator/internal/report"
)

func newAddCommand(get appGetter) *cobra.Command {
	var card, km, date, user string

	cmd := &cobra.Command{
		Use:   "add AMOUNT",
		Short: "Add a transaction record",
		Long: `Add a record with the given amount. Both "12.34" and "12,34" are accepted.

The owner defaults to the active identity and the date to now. A fuel cost of
half the distance is computed when --km is given.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(get, func(cmd *cobra.Command, app *App, args []string) error {
			in := core.RecordInput{UserName: user}
			var err error
			if in.Amount, err = core.ParseAmount(args[0]); err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}
			if in.CardAmount, err = core.ParseOptionalAmount(card); err != nil {
				return fmt.Errorf("card amount %q: %w", card, err)
			}
			if in.Km, err = core.ParseDistance(km); err != nil {
				return fmt.Errorf("km %q: %w", km, err)
			}
			if date != "" {
				if in.Date, err = parseDate(date, app.now().Location()); err != nil {
					return err
				}
			}

			rec, err := app.Store.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Added record %d: %s for %s\n",
				rec.ID, core.FormatMoney(rec.Amount), rec.UserName)
			return nil
		}),
	}

	cmd.Flags().StringVar(&card, "card", "", "amount paid by card")
	cmd.Flags().StringVar(&km, "km", "", "distance driven in km")
	cmd.Flags().StringVar(&date, "date", "", "record date, YYYY-MM-DD or DD.MM.YYYY")
	cmd.Flags().StringVar(&user, "user", "", "owner name (default: active identity)")
	return cmd
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, report.DateFormat} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: %w", s, core.ErrInvalidDate)
}

func newRemoveCommand(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove a record by id",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(get, func(cmd *cobra.Command, app *App, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id %q: %w", args[0], core.ErrInvalidID)
			}
			removed, err := app.Store.RemoveByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				warnColor.Fprintf(cmd.OutOrStdout(), "No record %d\n", id)
				return nil
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Removed record %d\n", id)
			return nil
		}),
	}
}

func newClearCommand(get appGetter) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every record",
		Args:  cobra.NoArgs,
		RunE: withApp(get, func(cmd *cobra.Command, app *App, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to remove %d records without --yes", app.Store.Len())
			}
			if err := app.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "All records removed")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removal of every record")
	return cmd
}

func newListCommand(get appGetter) *cobra.Command {
	var asJSON bool
	var order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records visible to the active identity",
		Args:  cobra.NoArgs,
		RunE: withApp(get, func(cmd *cobra.Command, app *App, _ []string) error {
			o, err := report.ParseOrder(order)
			if err != nil {
				return err
			}
			records := report.SortByDate(filter.Visible(app.Store.Snapshot(), app.identity()), o)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				warnColor.Fprintln(out, "No records")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "ID\tDate\tUser\tAmount\tCard\tKm\tFuel\t")
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
					r.ID,
					r.Date.Format(report.DateFormat),
					r.UserName,
					core.FormatMoney(r.Amount),
					core.FormatOptionalMoney(r.CardAmount),
					core.FormatOptionalDistance(r.Km),
					core.FormatOptionalMoney(r.FuelCost))
			}
			return w.Flush()
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	cmd.Flags().StringVar(&order, "order", "desc", "date order, asc or desc")
	return cmd
}

func newTotalsCommand(get appGetter) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show sums over the visible records and the monthly total",
		Args:  cobra.NoArgs,
		RunE: withApp(get, func(cmd *cobra.Command, app *App, _ []string) error {
			now := app.now()
			year, mon := now.Year(), now.Month()
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("month %q: expected YYYY-MM", month)
				}
				year, mon = t.Year(), t.Month()
			}

			active := app.identity()
			snapshot := app.Store.Snapshot()
			t := aggregate.Compute(filter.Visible(snapshot, active))
			cur := app.Config.ReportCurrency
			out := cmd.OutOrStdout()

			headColor.Fprintf(out, "Totals for %s (%d records)\n", active.Name, t.Count)
			fmt.Fprintf(out, "  Amount:    %s\n", withCurrency(core.FormatMoney(t.Amount), cur))
			if t.HasCard {
				fmt.Fprintf(out, "  Card:      %s\n", withCurrency(core.FormatMoney(t.CardAmount), cur))
			}
			if t.HasKm {
				fmt.Fprintf(out, "  Distance:  %s km\n", core.FormatDistance(t.Km))
			}
			if t.HasFuelCost {
				fmt.Fprintf(out, "  Fuel cost: %s\n", withCurrency(core.FormatMoney(t.FuelCost), cur))
			}

			monthly := aggregate.MonthTotal(snapshot, active.Name, year, mon)
			fmt.Fprintf(out, "  %s %d:  %s\n", mon, year, withCurrency(core.FormatMoney(monthly), cur))
			return nil
		}),
	}
	cmd.Flags().StringVar(&month, "month", "", "month for the monthly total, YYYY-MM (default: current)")
	return cmd
}

func withCurrency(s, cur string) string {
	if cur == "" {
		return s
	}
	return s + " " + cur
}

func newTrendCommand(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "trend",
		Short: "Show the visible amount summed per day",
		Args:  cobra.NoArgs,
		RunE: withApp(get, func(cmd *cobra.Command, app *App, _ []string) error {
			days := aggregate.GroupByDay(filter.Visible(app.Store.Snapshot(), app.identity()))
			out := cmd.OutOrStdout()
			if len(days) == 0 {
				warnColor.Fprintln(out, "No records")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			for _, d := range days {
				fmt.Fprintf(w, "%s\t%s\t\n", d.Key(), core.FormatMoney(d.Amount))
			}
			return w.Flush()
		}),
	}
}

func newUsersCommand(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List selectable identities and the users present in records",
		Args:  cobra.NoArgs,
		RunE: withApp(get, func(cmd *cobra.Command, app *App, _ []string) error {
			out := cmd.OutOrStdout()
			active, selected := app.Store.ActiveIdentity()

			headColor.Fprintln(out, "Identities")
			for _, id := range app.Store.Roster() {
				marker := " "
				if selected && id.Name == active.Name {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\t%s\n", marker, id.Name, id.Image)
			}

			headColor.Fprintln(out, "Users in records")
			users := filter.Users(filter.Visible(app.Store.Snapshot(), app.identity()))
			if len(users) == 0 {
				fmt.Fprintln(out, "  (none)")
				return nil
			}
			fmt.Fprintf(out, "  %s\n", strings.Join(users, ", "))
			return nil
		}),
	}
}

func newUserCommand(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "user [NAME|next]",
		Short: "Show, select or cycle the active identity",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(get, func(cmd *cobra.Command, app *App, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if id, ok := app.Store.ActiveIdentity(); ok {
					fmt.Fprintln(out, id.Name)
					return nil
				}
				warnColor.Fprintf(out, "No identity selected, acting as %s\n", app.identity().Name)
				return nil
			}

			var (
				id  core.Identity
				err error
			)
			if args[0] == "next" {
				id, err = app.Store.CycleIdentity(cmd.Context())
			} else {
				id, err = app.Store.SetActiveIdentity(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			okColor.Fprintf(out, "Active identity: %s\n", id.Name)
			return nil
		}),
	}
}
