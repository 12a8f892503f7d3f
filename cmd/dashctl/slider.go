package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/pcprimedz/dashboard/api"
	"github.com/spf13/cobra"
)

func (a *app) sliderCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "slider", Short: "Manage the home page slider"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List slider items in display order",
		Args:  cobra.NoArgs,
		RunE: a.admin(func(cmd *cobra.Command, _ []string) error {
			items, err := a.api.Slider.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPRODUCT\tORDER\tACTIVE")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", it.ID, it.ProductID, it.Order, it.IsActive)
			}
			return tw.Flush()
		}),
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Append a product to the slider",
		Args:  cobra.ExactArgs(1),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			item, err := a.api.Slider.Add(cmd.Context(), api.ID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added product %s at position %d\n", args[0], item.Order)
			return nil
		}),
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Show or hide a slider item",
		Args:  cobra.ExactArgs(1),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			active, err := a.api.Slider.Toggle(cmd.Context(), api.ID(args[0]))
			if err != nil {
				return err
			}
			state := "hidden"
			if active {
				state = "visible"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Slider item %s is now %s\n", args[0], state)
			return nil
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a slider item",
		Args:  cobra.ExactArgs(1),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			if err := a.api.Slider.Remove(cmd.Context(), api.ID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed slider item %s\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, add, toggle, remove)
	return cmd
}
