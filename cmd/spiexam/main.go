package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/spilabs/spiexam/internal/exam"
	"github.com/spilabs/spiexam/internal/examdata"
	"github.com/spilabs/spiexam/internal/handler"
	appI18n "github.com/spilabs/spiexam/internal/i18n"
	"github.com/spilabs/spiexam/internal/model"
	"github.com/spilabs/spiexam/internal/store"
	"github.com/spilabs/spiexam/internal/translate"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spiexam",
		Short: "SPI exam practice server",
	}

	serve := serveCmd()
	root.AddCommand(serve, validateCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `spiexam --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP exam server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "spiexam.db", "SQLite database path")
	f.StringP("data-dir", "D", "", "Exam data directory (or set EXAM_DATA_DIR)")
	f.StringP("lang", "l", "en", "Default UI language (en, ja)")
	f.Duration("session-ttl", exam.DefaultSessionTTL, "Exam session lifetime")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /spi)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("translate-url", "", "OpenAI-compatible API base URL for translation")
	f.String("translate-key", "", "API key for translation (or set EXAM_TRANSLATE_KEY)")
	f.String("translate-model", "gpt-4o-mini", "Model name for translation")
	f.String("admin-password", "", "Initial admin password (or set EXAM_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Resolve the exam data directory and report invalid files",
		RunE:  runValidate,
	}
	f := cmd.Flags()
	f.StringP("data-dir", "D", "", "Exam data directory (or set EXAM_DATA_DIR)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored exam results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "spiexam.db", "SQLite database path")
	f.Int("limit", 0, "Maximum number of results (0 = default cap)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper
// instance. The EXAM prefix makes --data-dir answer to EXAM_DATA_DIR.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("spiexam")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/spiexam")
	v.AddConfigPath("/etc/spiexam")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed the admin user if a password is configured and none exists.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// Load exam data. A missing data directory is not fatal: the health
	// endpoint stays alive and exam routes report the condition until an
	// admin reload succeeds.
	data := examdata.NewProvider(v.GetString("data-dir"))
	cat, err := data.Reload()
	switch {
	case errors.Is(err, model.ErrNoDataDir):
		slog.Error("exam data unavailable, exam routes disabled until reload", "error", err)
	case err != nil:
		return fmt.Errorf("load exam data: %w", err)
	default:
		if err := db.SetMetadata("data_dir", cat.Dir); err != nil {
			slog.Warn("failed to record data dir", "error", err)
		}
		for _, le := range cat.LoadErrors {
			slog.Warn("invalid question set file", "path", le.Path, "reason", le.Reason)
		}
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Create the translation client when configured.
	var translator handler.Translator
	if key := v.GetString("translate-key"); key != "" {
		client, err := translate.New(
			v.GetString("translate-url"),
			key,
			v.GetString("translate-model"),
		)
		if err != nil {
			return fmt.Errorf("create translation client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := client.Ping(ctx); err != nil {
			slog.Warn("translation endpoint unreachable", "error", err)
		}
		cancel()
		translator = client
	} else {
		slog.Info("translation disabled, no API key configured")
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.AppConfig{
		DataDir:       v.GetString("data-dir"),
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		SessionTTL:    v.GetDuration("session-ttl"),
	}

	sessions := exam.NewManager(cfg.SessionTTL)

	// Drop abandoned sessions in the background; expiry-on-access alone
	// never reclaims tokens that are simply never used again.
	go func() {
		for range time.Tick(10 * time.Minute) {
			if n := sessions.Sweep(); n > 0 {
				slog.Debug("swept expired sessions", "count", n)
			}
		}
	}()

	h := handler.New(data, sessions, db, translator, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"session_ttl", cfg.SessionTTL,
		"base_path", basePath,
		"translation", translator != nil,
	)
	return http.ListenAndServe(addr, r)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	dir, err := examdata.Resolve(v.GetString("data-dir"))
	if err != nil {
		return err
	}
	cat, err := examdata.Load(dir)
	if err != nil {
		return err
	}

	fmt.Printf("data directory: %s\n", dir)
	for _, s := range cat.Sets("", "") {
		fmt.Printf("  %-30s %s/%s  %d questions\n", s.Slug, s.Mode, s.Category, s.NumQuestions)
	}
	if len(cat.LoadErrors) > 0 {
		fmt.Printf("invalid files:\n")
		for _, le := range cat.LoadErrors {
			fmt.Printf("  %s\n", le.Error())
		}
		return fmt.Errorf("%d invalid question set file(s)", len(cat.LoadErrors))
	}
	fmt.Printf("%d question set(s), all valid\n", cat.Len())
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	summaries, err := db.ListResults(v.GetInt("limit"))
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}

	// Re-read each row to include the per-question breakdown.
	results := make([]model.ExamResult, 0, len(summaries))
	for _, s := range summaries {
		full, err := db.GetResult(s.ID)
		if err != nil {
			return fmt.Errorf("read result %d: %w", s.ID, err)
		}
		if full != nil {
			results = append(results, *full)
		}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 || password == "" {
		if count == 0 {
			slog.Info("no admin password configured, admin routes disabled")
		}
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := db.CreateUser(model.User{
		Username:     "admin",
		PasswordHash: string(hash),
	}); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
