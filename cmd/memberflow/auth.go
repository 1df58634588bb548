package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"memberflow/internal/biz"
	"memberflow/internal/biz/model"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with an email or membership ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), runLogin)
		},
	}
}

func runLogin(ctx context.Context, deps app) error {
	p := newPrompter()
	flow := deps.SignIn

	for !flow.Authenticated() {
		switch flow.Step() {
		case model.StepIdentifier:
			identifier, err := p.Ask("Email or membership ID")
			if err != nil {
				return err
			}
			if ferr := flow.SubmitIdentifier(ctx, identifier); !ferr.IsZero() {
				fmt.Println(ferr.Message)
				continue
			}
			fmt.Printf("Welcome, %s\n", flow.User().Name)

		case model.StepPassword:
			password, err := p.Ask("Password")
			if err != nil {
				return err
			}
			if ferr := flow.SubmitPassword(ctx, password); !ferr.IsZero() {
				fmt.Println(ferr.Message)
				if offerRecovery(ctx, p, deps, flow) {
					return nil
				}
			}

		case model.StepSetup:
			form, err := askSetupForm(p)
			if err != nil {
				return err
			}
			if ferr := flow.SubmitSetup(ctx, form); !ferr.IsZero() {
				fmt.Println(ferr.Message)
			}
		}
	}

	if err := deps.State.Refetch(ctx); err != nil {
		deps.Logger.Warn("could not load profile after sign-in")
	}
	fmt.Println("Signed in.")
	return nil
}

// offerRecovery optionally hands the session over to the forgot-password
// flow. It returns true when recovery ran to completion.
func offerRecovery(ctx context.Context, p *prompter, deps app, flow *biz.SignInFlow) bool {
	answer, err := p.Choose("Forgot your password?", "y", "n")
	if err != nil || answer != "y" {
		return false
	}

	user := flow.User()
	if user == nil {
		return false
	}

	if err := runRecovery(ctx, p, deps, user.ID); err != nil {
		fmt.Println(err)
		return false
	}
	return true
}

func askSetupForm(p *prompter) (model.SetupForm, error) {
	fmt.Println("This account has no password yet. Set one up now.")

	questions := []model.SecurityQuestion{
		model.QuestionFirstPet,
		model.QuestionMotherMaidenName,
		model.QuestionFirstSchool,
		model.QuestionBirthTown,
		model.QuestionFavouriteTeacher,
	}
	for i, q := range questions {
		fmt.Printf("  %d. %s\n", i+1, q)
	}

	var question model.SecurityQuestion
	for {
		choice, err := p.Ask("Security question (1-5)")
		if err != nil {
			return model.SetupForm{}, err
		}
		if len(choice) == 1 && choice[0] >= '1' && choice[0] <= '5' {
			question = questions[choice[0]-'1']
			break
		}
		fmt.Println("Pick a number between 1 and 5.")
	}

	answer, err := p.Ask("Security answer")
	if err != nil {
		return model.SetupForm{}, err
	}
	password, err := p.Ask("New password")
	if err != nil {
		return model.SetupForm{}, err
	}
	confirm, err := p.Ask("Confirm password")
	if err != nil {
		return model.SetupForm{}, err
	}

	return model.SetupForm{
		SecurityQuestion: question,
		SecurityAnswer:   answer,
		Password:         password,
		ConfirmPassword:  confirm,
	}, nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, deps app) error {
				if err := deps.State.Logout(ctx); err != nil {
					return err
				}
				fmt.Println("Logged out.")
				return nil
			})
		},
	}
}

func recoverCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reset a forgotten password via the security question",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, deps app) error {
				return runRecovery(ctx, newPrompter(), deps, userID)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "Account to recover")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func runRecovery(ctx context.Context, p *prompter, deps app, userID string) error {
	flow := deps.Recovery.Begin(userID)

	if ferr := flow.Load(ctx); !ferr.IsZero() {
		return fmt.Errorf("could not load security question: %s", ferr.Message)
	}

	subject := flow.Subject()
	fmt.Printf("Recovering account of %s\n", subject.Name)
	fmt.Printf("Security question: %s\n", subject.SecurityQuestion)

	for flow.Step() == model.StepAnswer {
		answer, err := p.Ask("Answer")
		if err != nil {
			return err
		}
		if ferr := flow.SubmitAnswer(ctx, answer); !ferr.IsZero() {
			fmt.Println(ferr.Message)
			if flow.Failed() {
				return fmt.Errorf("recovery failed")
			}
		}
	}

	for !flow.Authenticated() {
		password, err := p.Ask("New password")
		if err != nil {
			return err
		}
		confirm, err := p.Ask("Confirm password")
		if err != nil {
			return err
		}
		if ferr := flow.SubmitReset(ctx, password, confirm); !ferr.IsZero() {
			fmt.Println(ferr.Message)
		}
	}

	fmt.Println("Password reset. You are signed in.")
	return nil
}
