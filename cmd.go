package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/precedents/internal/api"
	"github.com/example/precedents/internal/auth"
	"github.com/example/precedents/internal/bot"
	"github.com/example/precedents/internal/config"
	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/excel"
	"github.com/example/precedents/internal/logger"
	"github.com/example/precedents/internal/scheduler"
	"github.com/example/precedents/internal/study"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	envFile string
	cfg     *config.Config

	importDryRun bool
	importSheet  string
	revokeAdmin  bool

	rootCmd = &cobra.Command{
		Use:           "precedents",
		Short:         "Study service for legal precedents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				return err
			}
			logger.Setup(cfg.PrettyLog, cfg.LogLevel)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the reminder scheduler and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Import precedents from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	promoteCmd = &cobra.Command{
		Use:   "promote [email]",
		Short: "Grant administrator rights to a registered user",
		Args:  cobra.ExactArgs(1),
		RunE:  runPromote,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate rows without writing")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Sheet to import (defaults to the first)")

	rootCmd.AddCommand(promoteCmd)
	promoteCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Revoke administrator rights instead")
}

func openDB() (*sqlx.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("database ready")
	return db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.PrettyLog {
		gin.SetMode(gin.ReleaseMode)
	}

	users := database.NewUserRepository(db)
	svc := study.NewService(db, cfg.Location())
	authSvc := auth.NewService(users, database.NewSessionRepository(db), cfg.SessionTTL, cfg.IsAdminEmail)
	srv := api.NewServer(authSvc, svc, database.NewSubjectRepository(db), api.Options{HeatmapDays: cfg.HeatmapDays})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	var notifier scheduler.Notifier = bot.LogNotifier{}
	if cfg.TelegramBotToken != "" {
		b, err := bot.New(cfg.TelegramBotToken, users, svc)
		if err != nil {
			return err
		}
		notifier = b
		g.Go(func() error { return b.Run(gctx) })
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, reminders are only logged")
	}

	if cfg.EnableScheduler {
		sched := scheduler.New(notifier, users, svc, authSvc, scheduler.Options{
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
		})
		if err := sched.Start(gctx); err != nil {
			return err
		}
		defer sched.Stop()
		log.Info().Str("timezone", cfg.StudyTimezone).Msg("reminder scheduler started")
	}

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runMigrate(_ *cobra.Command, _ []string) error {
	// Open applies the schema
	db, err := openDB()
	if err != nil {
		return err
	}
	return db.Close()
}

func runImport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	importer := excel.NewImporter(database.NewSubjectRepository(db), database.NewPrecedentRepository(db))
	result, err := importer.ImportFile(cmd.Context(), args[0], excel.ImportConfig{SheetName: importSheet, DryRun: importDryRun})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed: %d\nCreated: %d\nUpdated: %d\nSkipped: %d\nSubjects created: %d\n",
		result.TotalProcessed, result.Created, result.Updated, result.Skipped, result.SubjectsCreated)
	for _, e := range result.Errors {
		fmt.Fprintln(out, e)
	}
	return nil
}

func runPromote(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	email, err := auth.NormalizeEmail(args[0])
	if err != nil {
		return err
	}
	users := database.NewUserRepository(db)
	user, err := users.GetByEmail(cmd.Context(), email)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("no user registered with %s", email)
	}
	if err != nil {
		return err
	}
	if err := users.SetAdmin(cmd.Context(), user.ID, !revokeAdmin); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is_admin=%t\n", email, !revokeAdmin)
	return nil
}
