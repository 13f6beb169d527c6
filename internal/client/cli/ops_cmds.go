package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/auth"
)

// requireAuth resolves the stored credential and fails unless signed in.
func requireAuth(cmd *cobra.Command, a *App) error {
	a.Auth.Bootstrap(cmd.Context())
	if a.Auth.Status() != auth.StatusAuthenticated {
		return fmt.Errorf("not signed in; run 'ilmcli login' first")
	}
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newSessionsCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage research sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List research sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}
			if err := a.Registry.List(cmd.Context()); err != nil {
				return fmt.Errorf("could not fetch sessions: %s", api.Detail(err, "backend unavailable"))
			}
			sessions := a.Registry.Sessions()
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No research sessions yet.")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Title)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a research session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Registry.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("could not delete session: %s", api.Detail(err, "backend unavailable"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %d deleted.\n", id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all research sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}
			if err := a.Registry.List(cmd.Context()); err != nil {
				return fmt.Errorf("could not fetch sessions: %s", api.Detail(err, "backend unavailable"))
			}
			total := len(a.Registry.Sessions())
			failed := a.Registry.ClearAll(cmd.Context())
			if failed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d sessions (%d failed).\n", total-failed, total, failed)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions.\n", total)
			return nil
		},
	})

	return cmd
}

func newLibraryCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage saved citations",
	}

	var sourceType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved citations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}
			if err := a.Library.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("could not fetch library: %s", api.Detail(err, "backend unavailable"))
			}
			citations := a.Library.Citations(sourceType)
			if len(citations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved citations.")
				return nil
			}
			for _, c := range citations {
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  [%s] %s\n        %s\n", c.ID, c.SourceType, c.SourceID, c.Content)
			}
			return nil
		},
	}
	list.Flags().StringVarP(&sourceType, "type", "t", "", "filter by source type (quran, hadith, fiqh)")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "save <source-type> <source-id>",
		Short: "Save a citation to the library",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}
			citation, err := a.Library.Save(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("could not save citation: %s", api.Detail(err, "backend unavailable"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved citation %d.\n", citation.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a saved citation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Library.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("could not delete citation: %s", api.Detail(err, "backend unavailable"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Citation %d deleted.\n", id)
			return nil
		},
	})

	return cmd
}

func newUsageCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show quota usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}
			if err := a.Usage.Poll(cmd.Context()); err != nil {
				return fmt.Errorf("could not fetch usage: %s", api.Detail(err, "backend unavailable"))
			}
			snapshot, _ := a.Usage.Snapshot()
			if snapshot.IsUnlimited {
				fmt.Fprintf(cmd.OutOrStdout(), "Tier: %s (unlimited)\nQueries used: %d\n", snapshot.Tier, snapshot.UsageCount)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tier: %s\nQueries used: %d of %d\n", snapshot.Tier, snapshot.UsageCount, snapshot.UsageLimit)
			return nil
		},
	}
}

func newUpgradeCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade to the premium tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}
			if err := a.Usage.Upgrade(cmd.Context()); err != nil {
				return fmt.Errorf("upgrade failed: %s", api.Detail(err, "backend unavailable"))
			}
			snapshot, _ := a.Usage.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "Upgraded. Current tier: %s\n", snapshot.Tier)
			return nil
		},
	}
}

func newSettingsCmd(app func() *App) *cobra.Command {
	var (
		fullName string
		madhhab  string
		language string
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update profile settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := requireAuth(cmd, a); err != nil {
				return err
			}

			update := api.ProfileUpdate{}
			if cmd.Flags().Changed("name") {
				update.FullName = &fullName
			}
			if cmd.Flags().Changed("madhhab") {
				update.PreferredMadhhab = &madhhab
			}
			if cmd.Flags().Changed("language") {
				update.UILanguage = &language
			}
			if update != (api.ProfileUpdate{}) {
				if !a.Auth.UpdateProfile(cmd.Context(), update) {
					return fmt.Errorf("could not update profile")
				}
			}

			p := a.Auth.Profile()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Email:             %s\n", p.Email)
			fmt.Fprintf(out, "Full name:         %s\n", p.FullName)
			fmt.Fprintf(out, "Preferred madhhab: %s\n", p.PreferredMadhhab)
			fmt.Fprintf(out, "Language:          %s\n", p.UILanguage)
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVar(&madhhab, "madhhab", "", "preferred madhhab (Hanafi, Shafi'i, Maliki, Hanbali)")
	cmd.Flags().StringVar(&language, "language", "", "answer language (en, bn)")
	return cmd
}

func newStatusCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Client.Health(cmd.Context()); err != nil {
				return fmt.Errorf("backend unreachable: %s", api.Detail(err, err.Error()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Backend is reachable.")
			return nil
		},
	}
}
