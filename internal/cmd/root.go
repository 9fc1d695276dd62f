package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lobocrea/wsptranscriber/internal/adapter/archive"
	"github.com/lobocrea/wsptranscriber/internal/adapter/organizer"
	"github.com/lobocrea/wsptranscriber/internal/adapter/parser"
	"github.com/lobocrea/wsptranscriber/internal/adapter/renderer"
	"github.com/lobocrea/wsptranscriber/internal/adapter/transcriber"
	"github.com/lobocrea/wsptranscriber/internal/app"
	"github.com/lobocrea/wsptranscriber/internal/config"
	"github.com/lobocrea/wsptranscriber/internal/domain"
	"github.com/lobocrea/wsptranscriber/internal/logging"
	"github.com/lobocrea/wsptranscriber/internal/progress"
)

var (
	fromStr string
	toStr   string
	output  string
	format  string
)

var rootCmd = &cobra.Command{
	Use:   "wsptranscriber <export.zip>",
	Short: "Turn WhatsApp chat exports into readable, transcribed conversations",
	Long: `wsptranscriber processes WhatsApp chat exports (.zip files): it parses the
chat, transcribes voice messages with the OpenAI Whisper API, organizes the
conversation and writes it as text, markdown, JSON or YAML.`,
	Args:         cobra.ExactArgs(1),
	RunE:         runRoot,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVar(&fromStr, "from", "", `Start time filter (format: "DD.MM.YYYY" or "DD.MM.YYYY HH:MM")`)
	rootCmd.Flags().StringVar(&toStr, "to", "", `End time filter (format: "DD.MM.YYYY" or "DD.MM.YYYY HH:MM")`)
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "text", `Output format: "text", "markdown", "json" or "yaml"`)
	rootCmd.Flags().Bool("no-organize", false, "Skip the AI organizer and merge transcripts locally")
	rootCmd.Flags().Int("concurrency", 1, "Number of voice messages transcribed in parallel")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")

	cobra.CheckErr(viper.BindPFlag("no_organize", rootCmd.Flags().Lookup("no-organize")))
	cobra.CheckErr(viper.BindPFlag("concurrency", rootCmd.Flags().Lookup("concurrency")))
	cobra.CheckErr(viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
}

func initConfig() {
	dir, err := config.Dir()
	cobra.CheckErr(err)

	if _, err := os.Stat(dir); os.IsNotExist(err) { //nolint:gosec // path is constructed from XDG_CONFIG_HOME or user home dir
		err = os.MkdirAll(dir, 0750) //nolint:gosec // see above
		cobra.CheckErr(err)
	}

	cobra.CheckErr(config.Init(viper.GetViper(), dir))
}

// newService wires the adapters for cfg. Without an API key the
// transcriber and organizer stay nil and the run degrades gracefully.
func newService(cfg config.Config, r domain.ChatRenderer, log zerolog.Logger) *app.ChatService {
	var tr domain.Transcriber
	if t, err := transcriber.NewOpenAITranscriber(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.TranscriptionModel, cfg.TranscriptionLanguage); err == nil {
		tr = t
	}

	var org domain.Organizer
	if cfg.NoOrganize {
		org = organizer.Fallback{}
	} else if o, err := organizer.NewOpenAIOrganizer(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OrganizeModel, cfg.OrganizeTimeout, log); err == nil {
		org = o
	}

	opts := app.Options{
		TranscribeTimeout: cfg.TranscribeTimeout,
		Concurrency:       cfg.Concurrency,
		NewProgress: func(total int) app.Progress {
			return progress.New(total, cfg.LogLevel)
		},
	}

	return app.NewChatService(
		archive.NewZipExtractor(log),
		parser.New(parser.WithLogger(log)),
		tr,
		org,
		r,
		opts,
		log,
	)
}

func runRoot(cmd *cobra.Command, args []string) error {
	exportPath := args[0]

	from, err := parseTime(fromStr)
	if err != nil {
		return fmt.Errorf("parsing --from: %w", err)
	}

	to, err := parseTime(toStr)
	if err != nil {
		return fmt.Errorf("parsing --to: %w", err)
	}

	// If --to is date-only, set to end of day
	if to != nil && !strings.Contains(toStr, " ") {
		endOfDay := to.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		to = &endOfDay
	}

	r, err := renderer.ForFormat(format)
	if err != nil {
		return err
	}

	cfg := config.Load(viper.GetViper(), config.Keyring{})
	log := logging.New(logging.Config{Level: cfg.LogLevel, JSONFormat: cfg.LogJSON})
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("no OpenAI API key configured, run 'wsptranscriber init' to set one up")
	}
	svc := newService(cfg, r, log)

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return svc.Process(ctx, exportPath, from, to, w)
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	formats := []string{
		"02.01.2006 15:04",
		"02.01.2006",
	}

	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("unknown time format: %q (expected DD.MM.YYYY or DD.MM.YYYY HH:MM)", s)
}
