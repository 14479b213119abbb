package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/cli/config"
	ghcontroller "github.com/m-mizutani/herald/pkg/controller/github"
	controller "github.com/m-mizutani/herald/pkg/controller/http"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/usecase"
	"github.com/m-mizutani/herald/pkg/utils/async"
	"github.com/m-mizutani/herald/pkg/utils/errutil"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		githubCfg   config.GitHub
		projectCfg  config.Project
		notifierCfg config.Notifier
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, githubCfg.APIFlags()...)
	flags = append(flags, projectCfg.Flags()...)
	flags = append(flags, projectCfg.WatchFlags()...)
	flags = append(flags, notifierCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting herald server",
				slog.String("addr", serverCfg.Addr),
				slog.String("project", projectCfg.Path),
				slog.Any("smtp", notifierCfg.SMTP),
				slog.Any("slack", notifierCfg.Slack),
			)

			var gateway interfaces.Gateway
			gw, err := notifierCfg.Gateway()
			switch {
			case err == nil:
				gateway = gw
			case serverCfg.APISecret != "":
				return err
			default:
				logger.Warn("No notification gateway configured, publishing is disabled", "error", err)
			}

			builder := config.NewRuntimeBuilder(&projectCfg, gateway).WithGitHub(&githubCfg)
			rt, err := builder.Build()
			if err != nil {
				return goerr.Wrap(err, "failed to load project", goerr.V("path", projectCfg.Path))
			}
			holder := usecase.NewRuntimeHolder(rt)

			// Create use cases
			var webhookOpts []usecase.WebhookOption
			if t := rt.Project().Source.Type; t == model.SourceTypePush || t == "" {
				processor := ghcontroller.NewEventProcessor(builder.PushSource(),
					ghcontroller.WithBranch(githubCfg.Branch),
				)
				webhookOpts = append(webhookOpts, usecase.WithEventProcessor(processor))
			}
			webhookUC := usecase.NewWebhook(webhookOpts...)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				holder,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
				controller.WithAPISecret(serverCfg.APISecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			reload := func(ctx context.Context) error {
				return builder.Reload(ctx, holder)
			}

			watchCtx, stopWatch := context.WithCancel(ctx)
			defer stopWatch()
			if projectCfg.Watch {
				watcher := config.NewWatcher(projectCfg.Path, projectCfg.Debounce, reload)
				go func() {
					if err := watcher.Run(watchCtx); err != nil {
						errutil.Handle(watchCtx, "Project watcher stopped", err)
					}
				}()
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// SIGHUP reloads the project, everything else shuts down
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer signal.Stop(sigChan)

		wait:
			for {
				select {
				case <-ctx.Done():
					logger.Info("Context cancelled, shutting down...")
					break wait
				case sig := <-sigChan:
					if sig == syscall.SIGHUP {
						if err := reload(ctx); err != nil {
							errutil.Handle(ctx, "Failed to reload project on SIGHUP", err)
						}
						continue
					}
					logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
					break wait
				}
			}
			stopWatch()

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}
			if err := async.Wait(shutdownCtx); err != nil {
				logger.Warn("Background tasks did not finish before shutdown", "error", err)
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
