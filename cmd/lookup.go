package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/harvestctl/harvest"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve project, client and person ids to names",
}

func newLookupCmd(use, short string, fn func(ctx context.Context, w io.Writer, c *harvest.Client, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return usageErr(fmt.Errorf("invalid %s id %q", use, args[0]))
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := fn(cmd.Context(), cmd.OutOrStdout(), s.client, id); err != nil {
				return classify(err)
			}
			return nil
		},
	}
}

func init() {
	lookupCmd.AddCommand(
		newLookupCmd("project", "Show a project's name, client and billable flag", lookupProject),
		newLookupCmd("client", "Show a client's name", lookupClient),
		newLookupCmd("user", "Show a person's full name", lookupUser),
	)
}

func lookupProject(ctx context.Context, w io.Writer, c *harvest.Client, id int64) error {
	name, err := c.ProjectName(ctx, id)
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Fprintf(w, "Project %d not found.\n", id)
		return nil
	}
	billable, err := c.IsBillable(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Project:  %s\n", name)
	fmt.Fprintf(w, "Billable: %t\n", billable)

	// Hits the cache populated by ProjectName when one is configured.
	projects, err := c.AllProjects(ctx)
	if err != nil {
		return err
	}
	if raw, ok := projects.Lookup(id, "client-id"); ok {
		if clientID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			client, err := c.ClientName(ctx, clientID)
			if err != nil {
				return err
			}
			if client != "" {
				fmt.Fprintf(w, "Client:   %s\n", client)
			}
		}
	}
	return nil
}

func lookupClient(ctx context.Context, w io.Writer, c *harvest.Client, id int64) error {
	name, err := c.ClientName(ctx, id)
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Fprintf(w, "Client %d not found.\n", id)
		return nil
	}
	fmt.Fprintln(w, name)
	return nil
}

func lookupUser(ctx context.Context, w io.Writer, c *harvest.Client, id int64) error {
	name, err := c.UserName(ctx, id)
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Fprintf(w, "Person %d not found.\n", id)
		return nil
	}
	fmt.Fprintln(w, name)
	return nil
}
