package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/pcprimedz/dashboard"
	"github.com/pcprimedz/dashboard/api"
	"github.com/spf13/cobra"
)

func intArg(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not a number", dashboard.ErrInvalidInput, s)
	}
	return id, nil
}

func (a *app) productsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "Manage the product catalogue"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: a.admin(func(cmd *cobra.Command, _ []string) error {
			products, err := a.api.Products.List(cmd.Context())
			if err != nil {
				return err
			}
			if term, _ := cmd.Flags().GetString("search"); term != "" {
				products = api.Search(products, term)
			}
			if csv, _ := cmd.Flags().GetBool("csv"); csv {
				return api.ExportCSV(cmd.OutOrStdout(), products)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBRAND\tQTY\tPRICE\tCONDITION")
			for _, p := range products {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.2f\t%s\n", p.ID, p.Name, p.Brand, p.Quantity, p.Price, api.NormalizeCondition(p.Condition))
			}
			return tw.Flush()
		}),
	}
	list.Flags().String("search", "", "filter by name, barcode, brand, cpu, gpu or category")
	list.Flags().Bool("csv", false, "write CSV instead of a table")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args[0])
			if err != nil {
				return err
			}
			if err := a.api.Products.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted product %d\n", id)
			return nil
		}),
	}

	cmd.AddCommand(list, del)
	return cmd
}

func (a *app) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "categories", Short: "Manage product categories"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: a.admin(func(cmd *cobra.Command, _ []string) error {
			categories, err := a.api.Categories.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, c := range categories {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return tw.Flush()
		}),
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			imagePath, _ := cmd.Flags().GetString("image")

			var image *dashboard.Upload
			if imagePath != "" {
				f, err := os.Open(imagePath)
				if err != nil {
					return fmt.Errorf("%w: %v", dashboard.ErrInvalidInput, err)
				}
				defer f.Close()
				image = &dashboard.Upload{
					Filename:    filepath.Base(imagePath),
					ContentType: mime.TypeByExtension(filepath.Ext(imagePath)),
					Data:        f,
				}
			}

			c, err := a.api.Categories.Create(cmd.Context(), args[0], description, image)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %d %s\n", c.ID, c.Name)
			return nil
		}),
	}
	create.Flags().String("description", "", "category description")
	create.Flags().String("image", "", "image file to upload")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args[0])
			if err != nil {
				return err
			}
			if err := a.api.Categories.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %d\n", id)
			return nil
		}),
	}

	cmd.AddCommand(list, create, del)
	return cmd
}
