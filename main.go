package main

import (
	"log"

	"github.com/spf13/cobra"

	"quizarena/config"
)

const releaseVersion = "1.0.0"

func main() {
	log.SetFlags(0)
	cfg := &config.Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:     "quizarena",
		Short:   "Real-time multiplayer trivia server.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(cmd.Flags(), configFile); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	config.BindFlags(fs, cfg)
	fs.StringVarP(&configFile, "config", "c", "", "optional YAML config file")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizarena v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
