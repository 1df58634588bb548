package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"memberflow/internal/biz/model"
)

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in member",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), runWhoami)
		},
	}
}

func runWhoami(ctx context.Context, deps app) error {
	if err := deps.State.Refetch(ctx); err != nil {
		return fmt.Errorf("not signed in, or the API is unreachable: %w", err)
	}

	user, latest := deps.State.Current()

	fmt.Printf("Name:     %s\n", user.Name)
	fmt.Printf("Email:    %s\n", user.Email)
	fmt.Printf("Mobile:   %s\n", user.MobileNumber)
	fmt.Printf("Status:   %s\n", user.UserStatus)
	if user.UserStatus == model.StatusRetired {
		fmt.Printf("Retired from: %s\n", user.RetiredDepartment)
	} else if user.Department != "" {
		fmt.Printf("Department:   %s\n", user.Department)
	}
	if latest != nil {
		fmt.Printf("Latest request: %s (%s)\n", latest.Type, latest.Status)
	}

	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check API reachability and the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), runStatus)
		},
	}
}

func runStatus(ctx context.Context, deps app) error {
	report, err := deps.Status.Status(ctx, model.StatusReq{})
	if err != nil {
		return err
	}

	fmt.Printf("API:     %s\n", report.API)
	fmt.Printf("Session: %s\n", report.Session)
	if report.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", report.ExpiresAt.Format(time.RFC3339))
	}
	for key, detail := range report.Details {
		fmt.Printf("  %s: %s\n", key, detail)
	}

	return nil
}
