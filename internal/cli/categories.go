package cli

import (
	"fmt"
	"strconv"

	"github.com/kodustech/activity-tracker/internal/models"

	"github.com/spf13/cobra"
)

func init() {
	categories := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage categories and application mappings",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		Run:   runCategoriesList,
	}
	list.Flags().Bool("json", false, "Print categories as JSON")

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		Run:   runCategoriesAdd,
	}
	add.Flags().String("color", "#6b7280", "Display color")
	add.Flags().Bool("productive", false, "Count time in this category as productive")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a category's name, color or productive flag",
		Args:  cobra.ExactArgs(1),
		Run:   runCategoriesUpdate,
	}
	update.Flags().String("name", "", "New name")
	update.Flags().String("color", "", "New color")
	update.Flags().String("productive", "", "true or false")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category and its application mappings",
		Args:  cobra.ExactArgs(1),
		Run:   runCategoriesDelete,
	}

	assign := &cobra.Command{
		Use:   "assign <application> <category-id>",
		Short: "Assign an application to a category",
		Args:  cobra.ExactArgs(2),
		Run:   runCategoriesAssign,
	}

	unassign := &cobra.Command{
		Use:   "unassign <application>",
		Short: "Remove an application's category",
		Args:  cobra.ExactArgs(1),
		Run:   runCategoriesUnassign,
	}

	mappings := &cobra.Command{
		Use:   "mappings",
		Short: "List application to category mappings",
		Args:  cobra.NoArgs,
		Run:   runCategoriesMappings,
	}

	apps := &cobra.Command{
		Use:   "apps",
		Short: "List every recorded application",
		Args:  cobra.NoArgs,
		Run:   runApps,
	}

	uncategorized := &cobra.Command{
		Use:   "uncategorized",
		Short: "List recorded applications without a category",
		Args:  cobra.NoArgs,
		Run:   runUncategorized,
	}

	categories.AddCommand(list, add, update, del, assign, unassign, mappings)
	RootCmd.AddCommand(categories, apps, uncategorized)
}

func runCategoriesList(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	cats, err := a.engine.GetCategories(cmd.Context())
	if err != nil {
		exitErr("list categories", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		printJSON(out, cats)
		return
	}
	if len(cats) == 0 {
		fmt.Fprintln(out, "No categories defined")
		return
	}
	for _, c := range cats {
		productive := ""
		if c.IsProductive {
			productive = "productive"
		}
		fmt.Fprintf(out, "%s  %-20s %-8s %s\n", c.ID, c.Name, c.Color, productive)
	}
}

func runCategoriesAdd(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	color, _ := cmd.Flags().GetString("color")
	productive, _ := cmd.Flags().GetBool("productive")

	c, err := a.engine.AddCategory(cmd.Context(), args[0], color, productive)
	if err != nil {
		exitErr("add category", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created category %s (%s)\n", c.Name, c.ID)
}

func runCategoriesUpdate(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	var upd models.CategoryUpdate
	if cmd.Flags().Changed("name") {
		name, _ := cmd.Flags().GetString("name")
		upd.Name = &name
	}
	if cmd.Flags().Changed("color") {
		color, _ := cmd.Flags().GetString("color")
		upd.Color = &color
	}
	if cmd.Flags().Changed("productive") {
		value, _ := cmd.Flags().GetString("productive")
		productive, err := strconv.ParseBool(value)
		if err != nil {
			exitErr("--productive", err)
		}
		upd.IsProductive = &productive
	}

	c, err := a.engine.UpdateCategory(cmd.Context(), args[0], upd)
	if err != nil {
		exitErr("update category", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated category %s (%s)\n", c.Name, c.ID)
}

func runCategoriesDelete(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	if err := a.engine.DeleteCategory(cmd.Context(), args[0]); err != nil {
		exitErr("delete category", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
}

func runCategoriesAssign(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	if err := a.engine.SetAppCategory(cmd.Context(), args[0], args[1]); err != nil {
		exitErr("assign category", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", args[0], args[1])
}

func runCategoriesUnassign(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	if err := a.engine.ClearAppCategory(cmd.Context(), args[0]); err != nil {
		exitErr("unassign category", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed category of %s\n", args[0])
}

func runCategoriesMappings(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	mappings, err := a.engine.GetAppCategories(cmd.Context())
	if err != nil {
		exitErr("list mappings", err)
	}
	out := cmd.OutOrStdout()
	for _, m := range mappings {
		fmt.Fprintf(out, "%-30s %s\n", m.Application, m.CategoryID)
	}
}

func runApps(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	apps, err := a.engine.GetApplications(cmd.Context())
	if err != nil {
		exitErr("list applications", err)
	}
	out := cmd.OutOrStdout()
	for _, app := range apps {
		fmt.Fprintln(out, app)
	}
}

func runUncategorized(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	apps, err := a.engine.GetUncategorizedApps(cmd.Context())
	if err != nil {
		exitErr("list uncategorized applications", err)
	}
	out := cmd.OutOrStdout()
	for _, app := range apps {
		fmt.Fprintln(out, app)
	}
}
