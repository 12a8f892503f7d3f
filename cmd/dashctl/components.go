package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pcprimedz/dashboard"
	"github.com/pcprimedz/dashboard/api"
	"github.com/spf13/cobra"
)

var componentKinds = []string{"cpu", "ram", "storage", "motherboard", "monitor"}

type componentOps struct {
	list func(ctx context.Context) (any, error)
	del  func(ctx context.Context, id api.ID) error
}

func opsFor[T api.Component](c *api.Components[T]) componentOps {
	return componentOps{
		list: func(ctx context.Context) (any, error) { return c.List(ctx) },
		del:  c.Delete,
	}
}

func (a *app) component(kind string) (componentOps, error) {
	switch kind {
	case "cpu":
		return opsFor(a.api.CPUs), nil
	case "ram":
		return opsFor(a.api.RAM), nil
	case "storage":
		return opsFor(a.api.Storage), nil
	case "motherboard":
		return opsFor(a.api.Motherboards), nil
	case "monitor":
		return opsFor(a.api.Monitors), nil
	}
	return componentOps{}, fmt.Errorf("%w: unknown component kind %q", dashboard.ErrInvalidInput, kind)
}

func (a *app) componentsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "components", Short: "Manage configurator parts (cpu, ram, storage, motherboard, monitor)"}

	list := &cobra.Command{
		Use:       "list <kind>",
		Short:     "List parts of one kind as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: componentKinds,
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			ops, err := a.component(args[0])
			if err != nil {
				return err
			}
			items, err := ops.list(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}),
	}

	del := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a part",
		Args:  cobra.ExactArgs(2),
		RunE: a.admin(func(cmd *cobra.Command, args []string) error {
			ops, err := a.component(args[0])
			if err != nil {
				return err
			}
			if err := ops.del(cmd.Context(), api.ID(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", args[0], args[1])
			return nil
		}),
	}

	cmd.AddCommand(list, del)
	return cmd
}
