package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veridianlabs/trustlens/internal/fetching"
	"github.com/veridianlabs/trustlens/internal/pipeline"
	"github.com/veridianlabs/trustlens/internal/reporting"
	"github.com/veridianlabs/trustlens/internal/storage"
	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

func NewAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url]",
		Short: "Audit a project website and produce a trust score",
		Long: `Fetch the target website through the browser strategy chain, extract
structured evidence, verify external claims, and produce an explainable
trust score report.`,
		Args: cobra.ExactArgs(1),
		RunE: runAudit,
	}

	cmd.Flags().DurationP("timeout", "t", 5*time.Minute, "Overall audit timeout")
	cmd.Flags().StringSliceP("formats", "f", []string{"json", "txt"}, "Report output formats (json, yaml, txt)")
	cmd.Flags().StringP("output", "o", "./reports", "Report output directory")
	cmd.Flags().Int("max-pages", 10, "Deep crawl page budget (0 disables the crawl)")
	cmd.Flags().Bool("no-verify", false, "Skip external evidence verification")
	cmd.Flags().Bool("no-ai", false, "Skip AI classification, score on pattern rules only")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the audit")

	_ = viper.BindPFlag("audit.timeout", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("audit.formats", cmd.Flags().Lookup("formats"))
	_ = viper.BindPFlag("audit.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("audit.max_pages", cmd.Flags().Lookup("max-pages"))
	_ = viper.BindPFlag("audit.no_verify", cmd.Flags().Lookup("no-verify"))
	_ = viper.BindPFlag("audit.no_ai", cmd.Flags().Lookup("no-ai"))
	_ = viper.BindPFlag("audit.metrics_addr", cmd.Flags().Lookup("metrics-addr"))

	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	targetURL := args[0]
	if !utils.IsHTTPURL(targetURL) {
		return fmt.Errorf("invalid url: %s (must be absolute http or https)", targetURL)
	}

	cfg := buildConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Global.Timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	metrics := utils.NewMetricsCollector(false)
	if addr := viper.GetString("audit.metrics_addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				logrus.Warnf("Metrics server stopped: %v", err)
			}
		}()
	}

	auditor, closePool := pipeline.NewProductionAuditor(cfg, metrics, logrus.StandardLogger())
	defer func() {
		if err := closePool(); err != nil {
			logrus.Warnf("Failed to close browser pool: %v", err)
		}
	}()

	report, err := auditor.Audit(ctx, targetURL)
	if err != nil {
		return auditFailure(err)
	}

	if repo, err := storage.NewAuditRepository(cfg.Storage.BaseDir, logrus.StandardLogger()); err != nil {
		logrus.Warnf("Audit history unavailable: %v", err)
	} else if err := repo.Store(ctx, report); err != nil {
		logrus.Warnf("Failed to store audit report: %v", err)
	}

	generator := reporting.NewReportGenerator(cfg.Reporting, logrus.StandardLogger())
	paths, err := generator.Write(report)
	if err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	text, err := generator.Render(report, "txt")
	if err == nil {
		fmt.Println(string(text))
	}
	for _, p := range paths {
		fmt.Printf("Report written: %s\n", p)
	}
	return nil
}

// auditFailure surfaces the classified user message and suggested actions.
// The raw cause is only logged at debug level.
func auditFailure(err error) error {
	logrus.Debugf("audit failed: %v", err)

	msg, actions := fetching.UserFacing(err)
	if msg == "" {
		return fmt.Errorf("audit failed: %w", err)
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, action := range actions {
		b.WriteString("\n  - " + action)
	}
	return errors.New(b.String())
}

// buildConfig layers the audit flags over the viper-loaded configuration.
func buildConfig() *models.Config {
	cfg := models.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		logrus.Warnf("Failed to map configuration, using defaults: %v", err)
	}

	if d := viper.GetDuration("audit.timeout"); d > 0 {
		cfg.Global.Timeout = d
	}
	if formats := viper.GetStringSlice("audit.formats"); len(formats) > 0 {
		cfg.Reporting.Formats = formats
	}
	if out := viper.GetString("audit.output"); out != "" {
		cfg.Reporting.OutputDir = out
	}
	if viper.IsSet("audit.max_pages") {
		cfg.Crawl.MaxPages = viper.GetInt("audit.max_pages")
	}
	if viper.GetBool("audit.no_verify") {
		cfg.Verification.Enabled = false
	}
	if viper.GetBool("audit.no_ai") {
		cfg.AI.Enabled = false
	}
	return cfg
}
