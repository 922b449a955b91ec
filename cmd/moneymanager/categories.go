package main

import (
	"fmt"
	"strconv"

	"github.com/findosh/moneymanager/internal/models"
)

func (a *app) categoriesCommand(cmd *Command, args []string) error {
	sub, rest, err := subcommand(cmd, args, "list", "add", "edit", "rm")
	if err != nil {
		return err
	}

	fs := cmd.NewFlagSet(a.stderr)
	name := fs.String("name", "", "Category name")
	color := fs.String("color", "", "Hex color, e.g. #0ea5e9")
	icon := fs.String("icon", "", "Icon (emoji)")
	if rest, err = parseFlags(fs, rest); err != nil {
		return err
	}
	set := setFlags(fs)

	ctx, cancel := a.requestContext()
	defer cancel()
	h := a.handler

	switch sub {
	case "add":
		in := models.CategoryInput{Name: *name, Color: *color, Icon: *icon}
		if in.Name == "" && len(rest) == 1 {
			in.Name = rest[0]
		}
		c, err := h.CreateCategory(ctx, in)
		if err != nil {
			return err
		}
		a.printf("%s Added category %s %s [%s]\n", a.palette.Success("✓"), c.Icon, c.Name, c.ID)
		return nil

	case "edit":
		if len(rest) != 1 {
			return fmt.Errorf("usage: moneymanager categories edit [--name N] [--color C] [--icon I] <id>")
		}
		var patch models.CategoryPatch
		if set["name"] {
			patch.Name = name
		}
		if set["color"] {
			patch.Color = color
		}
		if set["icon"] {
			patch.Icon = icon
		}
		c, err := h.UpdateCategory(ctx, rest[0], patch)
		if err != nil {
			return err
		}
		a.printf("%s Updated category %s %s\n", a.palette.Success("✓"), c.Icon, c.Name)
		return nil

	case "rm":
		if len(rest) != 1 {
			return fmt.Errorf("usage: moneymanager categories rm <id>")
		}
		if err := h.DeleteCategory(ctx, rest[0]); err != nil {
			return err
		}
		a.printf("%s Deleted category %s\n", a.palette.Success("✓"), rest[0])
		return nil
	}

	categories, err := h.LoadCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		a.printf("No categories yet. Add one with 'moneymanager categories add <name>'.\n")
		return nil
	}
	table := NewTableWriter("ID", "ICON", "NAME", "COLOR", "EXPENSES")
	for _, c := range categories {
		table.AddRow(c.ID, c.Icon, c.Name, c.Color, strconv.Itoa(c.Count))
	}
	table.Print(a.stdout, a.palette.Heading)
	return nil
}
