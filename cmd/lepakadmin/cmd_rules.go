package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Atan0707/lepakmasjid/internal/repository"
)

// authenticatedCreateRule lets any signed-in user create records.
const authenticatedCreateRule = `@request.auth.id != ""`

var createRule = authenticatedCreateRule

// rulesCmd groups the collection rule commands
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and repair collection API rules",
}

// rulesShowCmd prints the current rules of a collection
var rulesShowCmd = &cobra.Command{
	Use:   "show [collection]",
	Short: "Print a collection's API rules",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesShow,
}

// rulesFixCmd opens the create rule of a collection to signed-in users
var rulesFixCmd = &cobra.Command{
	Use:   "fix [collection]",
	Short: "Allow any signed-in user to create records in a collection",
	Long: `Patches the collection's create rule to '@request.auth.id != ""' so that
any authenticated user can create records. Without this rule the backend
keeps the default, admin-only rule and in-app submissions fail with 403.

Defaults to the submissions collection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRulesFix,
}

func init() {
	rulesFixCmd.Flags().StringVar(&createRule, "rule", authenticatedCreateRule, "Create rule to apply")

	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesFixCmd)
}

func collectionArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return repository.SubmissionsCollection
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.signInAdmin(ctx); err != nil {
		return err
	}
	name := collectionArg(args)
	coll, err := a.pb.GetCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("fetch collection %q: %w", name, err)
	}
	fmt.Printf("collection %s (%s, type %s)\n", coll.Name, coll.ID, coll.Type)
	fmt.Printf("  listRule:   %s\n", ruleString(coll.ListRule))
	fmt.Printf("  viewRule:   %s\n", ruleString(coll.ViewRule))
	fmt.Printf("  createRule: %s\n", ruleString(coll.CreateRule))
	fmt.Printf("  updateRule: %s\n", ruleString(coll.UpdateRule))
	fmt.Printf("  deleteRule: %s\n", ruleString(coll.DeleteRule))
	return nil
}

func runRulesFix(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.signInAdmin(ctx); err != nil {
		return err
	}
	name := collectionArg(args)
	coll, err := a.pb.GetCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("fetch collection %q: %w", name, err)
	}

	fmt.Printf("collection %s (%s)\n", coll.Name, coll.ID)
	fmt.Printf("  createRule before: %s\n", ruleString(coll.CreateRule))

	if coll.CreateRule != nil && *coll.CreateRule == createRule {
		fmt.Println("  already set, nothing to do")
		return nil
	}

	updated, err := a.pb.UpdateCollection(ctx, name, map[string]any{"createRule": createRule})
	if err != nil {
		return fmt.Errorf("update create rule: %w", err)
	}
	fmt.Printf("  createRule after:  %s\n", ruleString(updated.CreateRule))
	return nil
}

// ruleString renders rules the way the backend means them.
func ruleString(rule *string) string {
	if rule == nil {
		return "<admin only>"
	}
	if *rule == "" {
		return "<public>"
	}
	return *rule
}
