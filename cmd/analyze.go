package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/analyzer"
	"github.com/spigell/resume-matcher/internal/export"
)

type analyzeOptions struct {
	resumeFile string
	userID     string
	jobFile    string
	force      bool
	noAI       bool
	xlsx       string
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description and print the analysis as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, config := mustSetup()

		if err := runAnalyze(ctx, cmd.OutOrStdout(), config, analyzeOpts, logger); err != nil {
			logger.Fatal("analyzing", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeOpts.resumeFile, "resume", "r", "", "resume text file")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.userID, "user", "u", "", "use the latest stored document of this user as the resume")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.jobFile, "job", "J", "", "job description text file")
	analyzeCmd.Flags().BoolVarP(&analyzeOpts.force, "force", "f", false, "recompute even if a cached analysis exists")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.noAI, "no-ai", false, "skip AI narrative enrichment")
	analyzeCmd.Flags().StringVar(&analyzeOpts.xlsx, "xlsx", "", "also write the analysis to this .xlsx file")

	analyzeCmd.MarkFlagRequired("job")
	analyzeCmd.MarkFlagsMutuallyExclusive("resume", "user")
	analyzeCmd.MarkFlagsOneRequired("resume", "user")
}

func runAnalyze(ctx context.Context, out io.Writer, config *Config, opts analyzeOptions, logger *zap.Logger) error {
	resumeText, err := loadResume(ctx, config, opts)
	if err != nil {
		return err
	}

	jobText, err := readTextFile(opts.jobFile)
	if err != nil {
		return err
	}

	svc, err := newAnalyzer(ctx, config, !opts.noAI, logger)
	if err != nil {
		return err
	}

	analysis, err := svc.Analyze(ctx, resumeText, jobText, opts.force)
	if err != nil {
		if errors.Is(err, analyzer.ErrUpstreamUnavailable) {
			return fmt.Errorf("analysis could not run: %w", err)
		}
		return err
	}

	logger.Info("analysis finished", zap.Int("match_score", analysis.MatchScore))

	if opts.xlsx != "" {
		path, err := export.WriteAnalysis(opts.xlsx, analysis)
		if err != nil {
			return fmt.Errorf("export analysis: %w", err)
		}
		logger.Info("analysis exported", zap.String("filename", path))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}

func loadResume(ctx context.Context, config *Config, opts analyzeOptions) (string, error) {
	if opts.resumeFile != "" {
		return readTextFile(opts.resumeFile)
	}

	userID := strings.TrimSpace(opts.userID)
	if userID == "" {
		return "", errors.New("either --resume or --user is required")
	}

	st, err := openStore(ctx, config.Store)
	if err != nil {
		return "", err
	}
	defer st.Close()

	doc, err := st.GetLatestDocument(ctx, userID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("user %s has no stored documents", userID)
	}
	return doc.Content, nil
}
