package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lobocrea/wsptranscriber/internal/adapter/renderer"
	"github.com/lobocrea/wsptranscriber/internal/config"
	"github.com/lobocrea/wsptranscriber/internal/logging"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest <export.zip>",
	Short: "List the attachments referenced by a chat export",
	Long: `Lists every attachment the chat refers to, in order of first mention,
and whether the file is present in the export.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(viper.GetViper(), nil)
		log := logging.New(logging.Config{Level: cfg.LogLevel, JSONFormat: cfg.LogJSON})
		svc := newService(cfg, &renderer.TextRenderer{}, log)
		return svc.Manifest(args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}
