package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cropscan/config"
	"cropscan/internal/api/rest"
	"cropscan/internal/api/telegram"
	"cropscan/internal/domain/entity"
)

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "cropscan",
		Short:         "Crop leaf disease classifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			slog.SetDefault(config.NewLogger(cfg.LogLevel))
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and, if TELEGRAM_TOKEN is set, the Telegram bot",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveHandler(cmd.Context(), cfg, true)
		},
	}

	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Start only the Telegram bot",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}
			return serveHandler(cmd.Context(), cfg, false)
		},
	}

	predictCmd := &cobra.Command{
		Use:   "predict IMAGE",
		Short: "Diagnose a single leaf image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			offline, _ := cmd.Flags().GetBool("no-description")
			return predictHandler(cmd, cfg, args[0], entity.ParseLanguage(lang), !offline)
		},
	}
	predictCmd.Flags().String("lang", string(entity.DefaultLanguage), "Description language code or name")
	predictCmd.Flags().Bool("no-description", false, "Classify only, do not contact the description service")

	languagesCmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported description languages",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			printLanguages(cmd.OutOrStdout())
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, botCmd, predictCmd, languagesCmd)
	return rootCmd
}

// serveHandler запускает HTTP API и бота до отмены ctx.
// SIGHUP перечитывает артефакт модели без перезапуска процесса.
func serveHandler(ctx context.Context, cfg *config.Config, withHTTP bool) error {
	s, err := buildStack(cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		watchReload(gctx, s)
		return nil
	})

	if withHTTP {
		server := rest.NewServer(s.container, rest.Options{
			AllowedOrigins: cfg.CORSOrigins,
			MaxImageBytes:  cfg.MaxImageBytes,
		})
		g.Go(func() error {
			return server.Serve(gctx, cfg.HTTPAddr)
		})
	}

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, s.container, cfg.MaxImageBytes)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		g.Go(func() error {
			slog.Info("telegram bot is running")
			return bot.Run(gctx)
		})
	} else {
		slog.Warn("TELEGRAM_TOKEN is not set, telegram bot is disabled")
	}

	return g.Wait()
}

func watchReload(ctx context.Context, s *stack) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := s.reload(); err != nil {
				slog.Error("model reload failed, keeping current model", "error", err)
			}
		}
	}
}

func predictHandler(cmd *cobra.Command, cfg *config.Config, path string, lang entity.Language, describe bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	s, err := buildStack(cfg, describe)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := s.container.DiagnosisService.Diagnose(cmd.Context(), entity.RawImage{Data: data}, lang)
	if err != nil {
		return err
	}

	printDiagnosis(cmd.OutOrStdout(), d, s.container.Labels, describe)
	return nil
}
