package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Atan0707/lepakmasjid/internal/models"
)

var (
	submissionStatus  string
	submissionPage    int
	submissionPerPage int
	rejectReason      string
)

// submissionsCmd groups the moderation commands
var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "List and review mosque submissions",
}

// submissionsListCmd lists submissions, newest first
var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submissions, newest first",
	RunE:  runSubmissionsList,
}

// submissionsApproveCmd applies a pending submission
var submissionsApproveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a pending submission",
	Long: `Approves a pending submission: its mosque fields become a new mosque
record (or an update to the referenced one), the attached image is carried
over, and the reviewing account is recorded on the decision.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmissionsApprove,
}

// submissionsRejectCmd turns a pending submission down
var submissionsRejectCmd = &cobra.Command{
	Use:   "reject [id]",
	Short: "Reject a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmissionsReject,
}

func init() {
	submissionsListCmd.Flags().StringVar(&submissionStatus, "status", "", "Filter by status (pending, approved, rejected)")
	submissionsListCmd.Flags().IntVar(&submissionPage, "page", 1, "Page number")
	submissionsListCmd.Flags().IntVar(&submissionPerPage, "per-page", 30, "Items per page")
	submissionsRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Reason shown to the submitter (required)")
	submissionsRejectCmd.MarkFlagRequired("reason")

	submissionsCmd.AddCommand(submissionsListCmd)
	submissionsCmd.AddCommand(submissionsApproveCmd)
	submissionsCmd.AddCommand(submissionsRejectCmd)
}

func runSubmissionsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.signInReviewer(ctx); err != nil {
		return err
	}
	subs, total, err := a.subs.List(ctx, submissionStatus, submissionPage, submissionPerPage)
	if err != nil {
		return err
	}
	fmt.Printf("%-17s %-10s %-12s %-17s %s\n", "ID", "STATUS", "TYPE", "SUBMITTED BY", "NAME")
	for _, sub := range subs {
		name, _ := sub.Data["name"].(string)
		fmt.Printf("%-17s %-10s %-12s %-17s %s\n", sub.ID, sub.Status, sub.Type, sub.SubmittedBy, name)
	}
	fmt.Printf("%d of %d total\n", len(subs), total)
	return nil
}

func runSubmissionsApprove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.signInReviewer(ctx); err != nil {
		return err
	}
	sub, err := a.review.Approve(ctx, args[0], a.pb.AuthStore().RecordID())
	if err != nil {
		return err
	}
	switch sub.Type {
	case models.TypeNewMosque:
		fmt.Printf("approved %s: created mosque %s\n", sub.ID, sub.MosqueID)
	default:
		fmt.Printf("approved %s: updated mosque %s\n", sub.ID, sub.MosqueID)
	}
	return nil
}

func runSubmissionsReject(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.signInReviewer(ctx); err != nil {
		return err
	}
	sub, err := a.review.Reject(ctx, args[0], a.pb.AuthStore().RecordID(), rejectReason)
	if err != nil {
		return err
	}
	fmt.Printf("rejected %s: %s\n", sub.ID, sub.RejectionReason)
	return nil
}
