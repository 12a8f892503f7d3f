package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/pcprimedz/dashboard/api"
	"github.com/spf13/cobra"
)

func (a *app) logsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "logs", Short: "Browse the admin activity log"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List one page of activity entries",
		Args:  cobra.NoArgs,
		RunE: a.admin(func(cmd *cobra.Command, _ []string) error {
			logs, err := a.api.Logs.List(cmd.Context())
			if err != nil {
				return err
			}

			var f api.LogFilter
			f.Search, _ = cmd.Flags().GetString("search")
			f.Action, _ = cmd.Flags().GetString("action")
			f.EntityType, _ = cmd.Flags().GetString("entity")
			page, _ := cmd.Flags().GetInt("page")

			p := api.Paginate(api.FilterLogs(logs, f), page, api.DefaultPageSize)

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tADMIN\tACTION\tENTITY\tNAME\tDETAILS")
			for _, l := range p.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", l.CreatedAt, l.AdminID, l.Action, l.EntityType, l.EntityName, l.Details)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Page %d of %d (%d entries)\n", p.Page, max(p.TotalPages, 1), p.Total)
			return nil
		}),
	}
	list.Flags().String("search", "", "match entity name, details or admin id")
	list.Flags().String("action", "", "CREATE, UPDATE, DELETE, LOGIN, LOGOUT, EXPORT, IMPORT or OTHER")
	list.Flags().String("entity", "", "entity type, e.g. product")
	list.Flags().Int("page", 1, "page number")

	cmd.AddCommand(list)
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard overview",
		Args:  cobra.NoArgs,
		RunE: a.admin(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			orders, err := a.api.Orders.List(ctx)
			if err != nil {
				return err
			}
			products, err := a.api.Products.List(ctx)
			if err != nil {
				return err
			}

			s := api.Stats(orders, products)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Revenue:     %.2f\n", s.TotalRevenue)
			fmt.Fprintf(out, "Orders:      %d (%d pending, %d completed)\n", s.TotalOrders, s.PendingOrders, s.CompletedOrders)
			fmt.Fprintf(out, "Products:    %d (%d low stock)\n", s.TotalProducts, s.LowStockProducts)

			if low := api.LowStock(products, 5); len(low) > 0 {
				fmt.Fprintln(out, "\nLow stock:")
				for _, p := range low {
					fmt.Fprintf(out, "  %-30s %d left\n", p.Name, p.Quantity)
				}
			}
			if recent := api.RecentOrders(orders, 5); len(recent) > 0 {
				fmt.Fprintln(out, "\nRecent orders:")
				for _, o := range recent {
					fmt.Fprintf(out, "  %-12s %-24s %.2f\n", o.Reference(), o.FullName, o.Total)
				}
			}
			return nil
		}),
	}
}
