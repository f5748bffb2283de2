package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/bootstrap"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/presenter"
	"alfredoptarigan/resume-matcher/internal/services"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a resume against a job description",
	Example: `  resumematch match --resume cv.pdf --job-file posting.txt
  resumematch match -r cv.docx --job-url https://jobs.example.com/123 --output json
  resumematch match -i`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .docx, .txt or .md)")
	matchCmd.Flags().String("job-description", "", "job description text")
	matchCmd.Flags().String("job-file", "", "file containing the job description")
	matchCmd.Flags().String("job-url", "", "job posting URL to fetch the description from")
	matchCmd.Flags().StringP("output", "o", presenter.FormatText, "output format: text or json")
	matchCmd.Flags().Bool("show-raw", false, "print the raw model reply as well")
	matchCmd.Flags().BoolP("interactive", "i", false, "prompt for missing inputs")
}

// matchInput holds the user's inputs. The first non-empty job source wins:
// description text, then file, then URL.
type matchInput struct {
	ResumePath     string
	JobDescription string
	JobFile        string
	JobURL         string
}

type matchDeps struct {
	Service services.MatchService
	Parser  services.DocumentTextSource
	Fetcher services.JobDescriptionFetcher
}

func runMatch(cmd *cobra.Command) error {
	flags := cmd.Flags()

	var in matchInput
	in.ResumePath, _ = flags.GetString("resume")
	in.JobDescription, _ = flags.GetString("job-description")
	in.JobFile, _ = flags.GetString("job-file")
	in.JobURL, _ = flags.GetString("job-url")

	format, _ := flags.GetString("output")
	showRaw, _ := flags.GetBool("show-raw")
	opts := presenter.Options{Format: format, ShowRaw: showRaw}
	if format != presenter.FormatText && format != presenter.FormatJSON {
		return fmt.Errorf("unknown output format %q, expected text or json", format)
	}

	if interactive, _ := flags.GetBool("interactive"); interactive {
		if err := promptMissing(&in); err != nil {
			return err
		}
	}

	if in.ResumePath == "" {
		return fmt.Errorf("--resume is required")
	}

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx := cmd.Context()

	model, err := bootstrap.NewModel(ctx, cfg, log)
	if err != nil {
		return err
	}

	log.Debug("starting match",
		zap.String("version", version),
		zap.String("provider", model.Client.Name()),
		zap.String("resume", in.ResumePath),
	)

	deps := matchDeps{
		Service: services.NewMatchService(services.MatchServiceDeps{
			Model:     model.Client,
			Extractor: bootstrap.NewExtractor(cfg, log),
		}, logger.WithComponent(log, "matcher")),
		Parser:  services.NewDocumentParser(logger.WithComponent(log, "parser")),
		Fetcher: bootstrap.NewFetcher(cfg, log),
	}

	return executeMatch(ctx, outputs{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}, deps, in, opts)
}

// outputs separates results from failure text. JSON failures stay on Out so
// scripts read a single document.
type outputs struct {
	Out io.Writer
	Err io.Writer
}

func (o outputs) failure(opts presenter.Options) io.Writer {
	if opts.Format == presenter.FormatJSON || o.Err == nil {
		return o.Out
	}
	return o.Err
}

// executeMatch renders the outcome. Pipeline failures are rendered too and
// reported as ErrReported.
func executeMatch(ctx context.Context, w outputs, deps matchDeps, in matchInput, opts presenter.Options) error {
	resumeText, err := readResume(deps.Parser, in.ResumePath)
	if err != nil {
		return reportFailure(w, nil, err, opts)
	}

	jobDescription, err := in.jobDescription(ctx, deps.Fetcher)
	if err != nil {
		return reportFailure(w, nil, err, opts)
	}

	result, err := deps.Service.Match(ctx, resumeText, jobDescription)
	if err != nil {
		return reportFailure(w, result, err, opts)
	}

	return presenter.Render(w.Out, result, nil, opts)
}

func reportFailure(w outputs, result *services.MatchResult, err error, opts presenter.Options) error {
	if rerr := presenter.Render(w.failure(opts), result, err, opts); rerr != nil {
		return rerr
	}
	return ErrReported
}

func readResume(parser services.DocumentTextSource, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &services.DocumentReadError{Filename: filepath.Base(path), Cause: err}
	}
	return parser.ExtractText(filepath.Base(path), data)
}

func (in matchInput) jobDescription(ctx context.Context, fetcher services.JobDescriptionFetcher) (string, error) {
	if text := strings.TrimSpace(in.JobDescription); text != "" {
		return text, nil
	}

	if in.JobFile != "" {
		data, err := os.ReadFile(in.JobFile)
		if err != nil {
			return "", fmt.Errorf("reading job description file: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", fmt.Errorf("%w: %s is empty", services.ErrNoJobDescription, in.JobFile)
		}
		return text, nil
	}

	if in.JobURL != "" && fetcher != nil {
		return fetcher.Fetch(ctx, in.JobURL)
	}

	return "", services.ErrNoJobDescription
}
