package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/resume-matcher/internal/bootstrap"
	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/services"
)

// Screens every resume in a directory against one job description and prints
// a ranking. Profiles are added to the talent pool when QDRANT_URL is set.
//
//	go run ./scripts/screen_resumes.go <job-description-file> <resume-dir>

var screenNamespace = uuid.MustParse("0d5cbb3e-4a57-4b7e-9f55-3c0a4f0f6a11")

type screening struct {
	Path    string
	Result  *services.MatchResult
	Err     error
	Percent float64
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: screen_resumes <job-description-file> <resume-dir>")
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "screen_resumes: %v\n", err)
		os.Exit(1)
	}
}

func run(jobFile, resumeDir string) error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobData, err := os.ReadFile(jobFile)
	if err != nil {
		return fmt.Errorf("reading job description: %w", err)
	}
	jobDescription := strings.TrimSpace(string(jobData))
	if jobDescription == "" {
		return services.ErrNoJobDescription
	}

	paths, err := resumeFiles(resumeDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Info("exiting", zap.String("reason", "no supported resumes found"), zap.String("dir", resumeDir))
		return nil
	}

	model, err := bootstrap.NewModel(ctx, cfg, log)
	if err != nil {
		return err
	}

	talentPool, err := bootstrap.NewTalentPool(ctx, cfg, model.Embedder, log)
	if err != nil {
		return err
	}

	parser := services.NewDocumentParser(logger.WithComponent(log, "parser"))
	matcher := services.NewMatchService(services.MatchServiceDeps{
		Model:     model.Client,
		Extractor: bootstrap.NewExtractor(cfg, log),
	}, logger.WithComponent(log, "matcher"))

	log.Info("screening resumes",
		zap.Int("count", len(paths)),
		zap.String("provider", model.Client.Name()),
		zap.Bool("talent_pool", talentPool != nil),
	)

	results := make([]screening, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Worker.Concurrency)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = screenOne(gctx, parser, matcher, talentPool, path, jobDescription, log)
			// Stop early only on cancellation; per-resume failures are reported in the summary.
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	printRanking(results)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Info("screening summary", zap.Int("screened", len(results)-failed), zap.Int("failed", failed))

	if failed > 0 {
		return fmt.Errorf("%d of %d resumes failed", failed, len(results))
	}
	return nil
}

func screenOne(
	ctx context.Context,
	parser services.DocumentTextSource,
	matcher services.MatchService,
	talentPool services.TalentPool,
	path, jobDescription string,
	log *zap.Logger,
) screening {
	s := screening{Path: path, Percent: -1}

	data, err := os.ReadFile(path)
	if err != nil {
		s.Err = err
		return s
	}

	resumeText, err := parser.ExtractText(filepath.Base(path), data)
	if err != nil {
		s.Err = err
		return s
	}

	s.Result, s.Err = matcher.Match(ctx, resumeText, jobDescription)
	if s.Err != nil {
		log.Warn("resume failed", zap.String("path", path), zap.String("reason", services.FailureMessage(s.Err)))
		return s
	}
	s.Percent = parsePercent(s.Result.Profile.MatchPercentage)

	if talentPool != nil {
		id := uuid.NewSHA1(screenNamespace, []byte(path)).String()
		if err := talentPool.IndexCandidate(ctx, id, s.Result.Profile, resumeText); err != nil {
			log.Warn("failed to index candidate", zap.String("path", path), zap.Error(err))
		}
	}

	return s
}

func resumeFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading resume directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := services.MimeTypeFor(entry.Name()); err != nil {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// parsePercent reads "82%" or "82.5 %" and returns -1 when there is no number.
func parsePercent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return -1
	}
	return v
}

func printRanking(results []screening) {
	ranked := make([]screening, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percent > ranked[j].Percent
	})

	fmt.Println(strings.Repeat("=", 60))
	for i, r := range ranked {
		name := filepath.Base(r.Path)
		if r.Err != nil {
			fmt.Printf("%3d. %-30s FAILED  %s\n", i+1, name, services.FailureMessage(r.Err))
			continue
		}
		p := r.Result.Profile
		fmt.Printf("%3d. %-30s %6s  %s <%s>\n", i+1, name, p.MatchPercentage, p.FullName, p.EmailID)
		if len(p.MissingSkills) > 0 {
			fmt.Printf("     missing: %s\n", strings.Join(p.MissingSkills, ", "))
		}
	}
	fmt.Println(strings.Repeat("=", 60))
}
