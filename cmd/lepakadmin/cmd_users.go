package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	userPage    int
	userPerPage int
)

// usersCmd groups the account commands
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List, ban and unban user accounts",
}

// usersListCmd lists accounts, newest first
var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts, newest first",
	RunE:  runUsersList,
}

// usersBanCmd suspends an account
var usersBanCmd = &cobra.Command{
	Use:   "ban [id]",
	Short: "Suspend a user account",
	Long: `Suspends a user by clearing the verified flag. The schema has no
dedicated suspension field, so a banned account reads as unverified
until it is unbanned.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersBan,
}

// usersUnbanCmd lifts a suspension
var usersUnbanCmd = &cobra.Command{
	Use:   "unban [id]",
	Short: "Lift a user suspension",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersUnban,
}

func init() {
	usersListCmd.Flags().IntVar(&userPage, "page", 1, "Page number")
	usersListCmd.Flags().IntVar(&userPerPage, "per-page", 30, "Items per page")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersBanCmd)
	usersCmd.AddCommand(usersUnbanCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.signInAdmin(ctx); err != nil {
		return err
	}
	users, total, err := a.users.List(ctx, userPage, userPerPage)
	if err != nil {
		return err
	}
	fmt.Printf("%-17s %-30s %-10s %s\n", "ID", "EMAIL", "VERIFIED", "NAME")
	for _, u := range users {
		fmt.Printf("%-17s %-30s %-10t %s\n", u.ID, u.Email, u.Verified, u.Name)
	}
	fmt.Printf("%d of %d total\n", len(users), total)
	return nil
}

func runUsersBan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.signInAdmin(ctx); err != nil {
		return err
	}
	user, err := a.accounts.Ban(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("banned %s (%s)\n", user.ID, user.Email)
	return nil
}

func runUsersUnban(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.signInAdmin(ctx); err != nil {
		return err
	}
	user, err := a.accounts.Unban(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("unbanned %s (%s)\n", user.ID, user.Email)
	return nil
}
