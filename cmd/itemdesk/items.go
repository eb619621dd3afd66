package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/omarluq/itemdesk/internal/apiclient"
	"github.com/omarluq/itemdesk/internal/view"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List, show and edit items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, newest first",
	Args:  cobra.NoArgs,
	RunE:  runItemsList,
}

var itemsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsGet,
}

var itemsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change the name or description of an item",
	Long: `Change the name or description of an item. Fields without a flag keep
their current value.`,
	Args: cobra.ExactArgs(1),
	RunE: runItemsUpdate,
}

func init() {
	itemsUpdateCmd.Flags().String("name", "", "new name")
	itemsUpdateCmd.Flags().String("description", "", "new description")

	itemsCmd.AddCommand(itemsListCmd, itemsGetCmd, itemsUpdateCmd)
	rootCmd.AddCommand(itemsCmd)
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

func runItemsList(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}

	items, err := sess.client.ListItems(cmd.Context())
	if err != nil {
		view.Fail(cmd.ErrOrStderr(), err.Error())
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), view.ItemsTable(items))
	return sess.save()
}

func runItemsGet(cmd *cobra.Command, args []string) error {
	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}

	item, err := sess.client.GetItem(cmd.Context(), id)
	if err != nil {
		view.Fail(cmd.ErrOrStderr(), err.Error())
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), view.ItemDetail(item))
	return sess.save()
}

func runItemsUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("name") && !flags.Changed("description") {
		return fmt.Errorf("nothing to update: set --name or --description")
	}

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}

	current, err := sess.client.GetItem(cmd.Context(), id)
	if err != nil {
		view.Fail(cmd.ErrOrStderr(), err.Error())
		return explain(err)
	}

	fields := apiclient.ItemFields{Name: current.Name, Description: current.Description}
	if flags.Changed("name") {
		fields.Name, _ = flags.GetString("name")
	}
	if flags.Changed("description") {
		fields.Description, _ = flags.GetString("description")
	}
	if err := fields.Validate(); err != nil {
		return err
	}

	updated, err := sess.client.UpdateItem(cmd.Context(), id, fields)
	if err != nil {
		view.Fail(cmd.ErrOrStderr(), err.Error())
		return explain(err)
	}

	out := cmd.OutOrStdout()
	view.OK(out, "Item updated successfully")
	fmt.Fprintln(out, view.ItemDetail(updated))
	return sess.save()
}
