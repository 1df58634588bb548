// Package main provides the memberflow binary entry point, a terminal
// client for the membership identity API: sign-in, account recovery,
// profile completion and session inspection.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"memberflow/internal/biz"
	"memberflow/internal/biz/model"
	"memberflow/internal/data"
	"memberflow/internal/pkg/config"
	logger "memberflow/internal/pkg/log"
	"memberflow/internal/pkg/otel"
	"memberflow/internal/service"
)

const (
	Version = "0.1.0"
	appName = "memberflow"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Membership client",
		Long:          "Memberflow signs members in, recovers forgotten passwords and completes membership profiles against the identity API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		recoverCmd(),
		profileCmd(),
		whoamiCmd(),
		statusCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

// app bundles everything a command pulls out of the dependency graph.
type app struct {
	fx.In

	Config   *config.Bootstrap
	Logger   *zap.Logger
	Tokens   data.TokenStore
	State    *biz.AppState
	SignIn   *biz.SignInFlow
	Recovery *biz.RecoveryFactory
	Wizards  *biz.WizardFactory
	Status   model.StatusUseCase
}

// withApp assembles the Fx graph, starts it, runs fn and stops the
// graph again. Commands stay free of wiring concerns.
func withApp(ctx context.Context, fn func(context.Context, app) error) error {
	var deps app

	fxApp := fx.New(
		fx.NopLogger,

		config.Module,
		logger.Module,
		data.Module,
		service.Module,
		biz.Module,

		fx.Invoke(func(conf *config.Bootstrap) error {
			return config.ValidateConfig(conf)
		}),

		fx.Invoke(func(lc fx.Lifecycle, conf *config.Bootstrap, l *zap.Logger) error {
			otelShutdown, err := otel.SetupOTelSDK(ctx, conf.Trace, l)
			if err != nil {
				return fmt.Errorf("setup OTel SDK: %w", err)
			}
			if otelShutdown != nil {
				lc.Append(fx.Hook{OnStop: otelShutdown})
			}
			return nil
		}),

		fx.Populate(&deps),
	)

	if err := fxApp.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx, deps)

	if err := fxApp.Stop(ctx); err != nil {
		if runErr == nil {
			return err
		}
		deps.Logger.Error("stop app", zap.Error(err))
	}

	return runErr
}
