package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pcprimedz/dashboard/api"
	"github.com/spf13/cobra"
)

// confirmDeleter is what orders and company orders have in common.
type confirmDeleter interface {
	Confirm(ctx context.Context, id api.ID) error
	Delete(ctx context.Context, id api.ID) error
}

func (a *app) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Review customer orders"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: a.admin(func(cmd *cobra.Command, _ []string) error {
			orders, err := a.api.Orders.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REF\tCUSTOMER\tPHONE\tTOTAL\tCONFIRMED\tCREATED")
			for _, o := range orders {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%t\t%s\n", o.Reference(), o.FullName, o.PhoneNumber, o.Total, o.Confirmed, o.CreatedAt)
			}
			return tw.Flush()
		}),
	}
	cmd.AddCommand(list)
	cmd.AddCommand(a.orderActions("order", func() confirmDeleter { return a.api.Orders })...)
	return cmd
}

func (a *app) companyOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "company-orders", Short: "Review business orders"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List company orders",
		Args:  cobra.NoArgs,
		RunE: a.admin(func(cmd *cobra.Command, _ []string) error {
			orders, err := a.api.CompanyOrders.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCOMPANY\tCONTACT\tNIF\tRC\tCONFIRMED")
			for _, o := range orders {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n", o.ID, o.CompanyName, o.ContactPerson, o.NIF, o.RC, o.Confirmed)
			}
			return tw.Flush()
		}),
	}
	cmd.AddCommand(list)
	cmd.AddCommand(a.orderActions("company order", func() confirmDeleter { return a.api.CompanyOrders })...)
	return cmd
}

// orderActions builds confirm and delete. target is resolved at run time,
// after setup has built the API.
func (a *app) orderActions(label string, target func() confirmDeleter) []*cobra.Command {
	confirm := &cobra.Command{
		Use:   "confirm <id>",
		Short: "Confirm a " + label,
		Args:  cobra.ExactArgs(1),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			if err := target().Confirm(cmd.Context(), api.ID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Confirmed %s %s\n", label, args[0])
			return nil
		}),
	}
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + label,
		Args:  cobra.ExactArgs(1),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			if err := target().Delete(cmd.Context(), api.ID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", label, args[0])
			return nil
		}),
	}
	return []*cobra.Command{confirm, del}
}
