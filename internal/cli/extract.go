package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/presenter"
	"alfredoptarigan/resume-matcher/internal/services"
)

var extractCmd = &cobra.Command{
	Use:   "extract [FILE]",
	Short: "Extract a candidate profile from a saved model reply",
	Long: `Reads a model reply from FILE, or from standard input when FILE is omitted or "-",
and prints the first JSON object in it that carries a full name, an email and a match percentage.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", presenter.FormatText, "output format: text or json")
	extractCmd.Flags().Bool("show-raw", false, "print the raw reply as well")
	extractCmd.Flags().Int("max-log-length", 200, "truncate the logged reply preview to this many characters")
}

func runExtract(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	format, _ := flags.GetString("output")
	showRaw, _ := flags.GetBool("show-raw")
	maxLogLength, _ := flags.GetInt("max-log-length")

	log, err := logger.New(viper.GetBool("log.json"), viper.GetBool("log.debug"))
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening reply file: %w", err)
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading reply: %w", err)
	}

	extractor := services.NewResponseExtractor(logger.WithComponent(log, "extractor"), maxLogLength)
	return executeExtract(outputs{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}, extractor, string(raw), presenter.Options{Format: format, ShowRaw: showRaw})
}

func executeExtract(w outputs, extractor *services.ResponseExtractor, raw string, opts presenter.Options) error {
	result := &services.MatchResult{
		RawReply:       raw,
		CandidateIndex: -1,
		Provider:       "file",
	}

	extraction, err := extractor.Inspect(raw)
	if err != nil {
		var extractionErr *services.ExtractionError
		if errors.As(err, &extractionErr) {
			result.Candidates = extractionErr.Candidates
		}
		return reportFailure(w, result, err, opts)
	}

	result.Profile = extraction.Profile
	result.CandidateIndex = extraction.Index
	result.Candidates = extraction.Candidates
	result.Skipped = extraction.Skipped

	return presenter.Render(w.Out, result, nil, opts)
}
