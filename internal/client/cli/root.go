package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilmai/ilmcli/internal/client/config"
	"github.com/ilmai/ilmcli/internal/client/tui"
)

// NewRootCmd builds the command tree. Without a subcommand the binary opens
// the interactive research TUI; -q runs a single query and exits.
func NewRootCmd() *cobra.Command {
	var (
		app       *App
		serverURL string
		mode      string
		lang      string
		logFile   string
		oneShot   string
	)

	root := &cobra.Command{
		Use:   "ilmcli",
		Short: "Terminal client for the IlmAI Islamic research assistant",
		Long: "ilmcli is a terminal client for IlmAI, a retrieval-backed research\n" +
			"assistant for Quran, Hadith and Fiqh. Run it bare for the interactive\n" +
			"TUI, or use subcommands for scripting.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if cmd.Flags().Changed("server") {
				cfg.ServerBaseURL = serverURL
			}
			if cmd.Flags().Changed("mode") {
				cfg.Mode = mode
			}
			if cmd.Flags().Changed("lang") {
				cfg.Language = lang
			}
			if cmd.Flags().Changed("log-file") {
				cfg.LogFile = logFile
			}
			var err error
			app, err = NewApp(cfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Bootstrap(cmd.Context())
			if oneShot != "" {
				return runOneShot(cmd, app, oneShot)
			}
			return tui.Run(cmd.Context(), tui.Deps{
				Client:       app.Client,
				Auth:         app.Auth,
				Transcript:   app.Transcript,
				Registry:     app.Registry,
				Dispatcher:   app.Dispatcher,
				Usage:        app.Usage,
				Library:      app.Library,
				Log:          app.Log,
				PollInterval: app.Config.UsagePollInterval,
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to JSON config file")
	pf.StringVarP(&serverURL, "server", "a", "", "base URL of the IlmAI backend")
	pf.StringVarP(&mode, "mode", "m", "", "research mode: standard or comparative")
	pf.StringVarP(&lang, "lang", "l", "", "answer language: en or bn")
	pf.StringVar(&logFile, "log-file", "", "debug log file (empty disables logging)")
	root.Flags().StringVarP(&oneShot, "query", "q", "", "run a single query and exit")

	appRef := func() *App { return app }
	root.AddCommand(
		newLoginCmd(appRef),
		newSignupCmd(appRef),
		newLogoutCmd(appRef),
		newSessionsCmd(appRef),
		newLibraryCmd(appRef),
		newUsageCmd(appRef),
		newUpgradeCmd(appRef),
		newSettingsCmd(appRef),
		newStatusCmd(appRef),
	)

	return root
}

// runOneShot dispatches a single query outside the TUI and prints the
// assistant's answer, citations included.
func runOneShot(cmd *cobra.Command, app *App, query string) error {
	if !app.Dispatcher.Dispatch(cmd.Context(), query) {
		return fmt.Errorf("empty query")
	}
	msgs := app.Transcript.Messages()
	last := msgs[len(msgs)-1]
	fmt.Fprintln(cmd.OutOrStdout(), last.Content)
	if len(last.Citations) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "Citations:")
		for _, c := range last.Citations {
			fmt.Fprintln(cmd.OutOrStdout(), "  - "+c)
		}
	}
	return nil
}
