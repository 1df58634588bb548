package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"memberflow/internal/biz"
	"memberflow/internal/biz/model"
)

func profileCmd() *cobra.Command {
	var complete bool

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Fill in the membership profile stage by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, deps app) error {
				return runProfile(ctx, deps, complete)
			})
		},
	}

	cmd.Flags().BoolVar(&complete, "complete", false, "Resume an incomplete profile of the signed-in member")

	return cmd
}

func runProfile(ctx context.Context, deps app, complete bool) error {
	var wizard *biz.Wizard

	if complete {
		if err := deps.State.Refetch(ctx); err != nil {
			return fmt.Errorf("load current profile: %w", err)
		}
		user, _ := deps.State.Current()
		wizard = deps.Wizards.CompleteAccount(*user)
	} else {
		wizard = deps.Wizards.Registration()
	}

	p := newPrompter()

	for !wizard.Done() {
		stage := wizard.Stage()
		fmt.Printf("\n— %s —\n", stage)

		if err := askStage(p, wizard, stage); err != nil {
			return err
		}

		if stage == model.StageLast {
			if ferr := wizard.Submit(ctx); !ferr.IsZero() {
				fmt.Println(ferr.Message)
				printFieldErrors(wizard.Errors())
				continue
			}
			break
		}

		if !wizard.Next() {
			printFieldErrors(wizard.Errors())
		}
	}

	fmt.Println("Profile saved.")
	return nil
}

// askStage prompts for the fields of one stage, keeping already entered
// values as defaults so going back does not mean retyping.
func askStage(p *prompter, wizard *biz.Wizard, stage model.Stage) error {
	form := wizard.Form()

	var err error
	switch stage {
	case model.StagePersonal:
		form.Name, err = p.AskDefault("Full name", form.Name)
		if err == nil {
			form.DOB, err = p.AskDefault("Date of birth (DD/MM/YYYY)", form.DOB)
		}
		if err == nil {
			form.Gender, err = p.AskDefault("Gender", form.Gender)
		}
		if err == nil {
			form.BloodGroup, err = p.AskDefault("Blood group", form.BloodGroup)
		}

	case model.StageProfessional:
		var status string
		status, err = p.Choose("Service status", "working", "retired")
		if err != nil {
			break
		}
		if status == "working" {
			form.UserStatus = model.StatusWorking
			form.RetiredDepartment = ""
			form.Department, err = p.AskDefault("Department", form.Department)
			if err == nil {
				form.Designation, err = p.AskDefault("Designation", form.Designation)
			}
			if err == nil {
				form.WorkDistrict, err = p.AskDefault("Work district", form.WorkDistrict)
			}
			if err == nil {
				form.OfficeAddress, err = p.AskDefault("Office address (optional)", form.OfficeAddress)
			}
		} else {
			form.UserStatus = model.StatusRetired
			form.Department = ""
			form.Designation = ""
			form.WorkDistrict = ""
			form.OfficeAddress = ""
			form.RetiredDepartment, err = p.AskDefault("Department retired from", form.RetiredDepartment)
		}

	case model.StageContact:
		form.PersonalAddress, err = p.AskDefault("Personal address", form.PersonalAddress)
		if err == nil {
			form.HomeDistrict, err = p.AskDefault("Home district", form.HomeDistrict)
		}
		if err == nil {
			form.Email, err = p.AskDefault("Email", form.Email)
		}
		if err == nil {
			form.MobileNumber, err = p.AskDefault("Mobile number", form.MobileNumber)
		}
		if err == nil {
			form.PhoneNumber, err = p.AskDefault("Phone number (optional)", form.PhoneNumber)
		}

	case model.StagePhoto:
		form.PhotoURL, err = p.AskDefault("Photo URL (optional)", form.PhotoURL)
		if err == nil {
			form.PhotoID, err = p.AskDefault("Photo ID (optional)", form.PhotoID)
		}
	}
	if err != nil {
		return err
	}

	wizard.Update(func(f *model.RegisterForm) { *f = form })
	return nil
}

func printFieldErrors(errs model.FormErrors) {
	for field, msg := range errs {
		fmt.Printf("  %s: %s\n", field, msg)
	}
}
