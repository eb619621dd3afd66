package view

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/omarluq/itemdesk/internal/apiclient"
)

// EmptyItems is shown for an empty item list.
const EmptyItems = "No items found"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// ItemsTable renders items as a table, or EmptyItems.
func ItemsTable(items []apiclient.Item) string {
	if len(items) == 0 {
		return mutedStyle.Render(EmptyItems)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "NAME", "DESCRIPTION", "CREATED")

	for _, it := range items {
		t.Row(strconv.FormatInt(it.ID, 10), it.Name, it.Description, it.CreatedAt)
	}
	return t.Render()
}

// ItemDetail renders one item.
func ItemDetail(it apiclient.Item) string {
	desc := it.Description
	if desc == "" {
		desc = mutedStyle.Render("(no description)")
	}
	return fmt.Sprintf("%s %s\n%s\n%s",
		titleStyle.Render(it.Name),
		mutedStyle.Render("#"+strconv.FormatInt(it.ID, 10)),
		desc,
		mutedStyle.Render(it.CreatedAt))
}

// UserDetail renders the current user.
func UserDetail(u apiclient.User) string {
	name := u.Username
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		name = fmt.Sprintf("%s (%s)", u.Username, full)
	}
	if u.Email == "" {
		return titleStyle.Render(name)
	}
	return titleStyle.Render(name) + " " + mutedStyle.Render("<"+u.Email+">")
}

// OK prints a success line.
func OK(w io.Writer, msg string) {
	//nolint:errcheck // terminal output
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

// Fail prints an error line.
func Fail(w io.Writer, msg string) {
	//nolint:errcheck // terminal output
	fmt.Fprintln(w, errorStyle.Render("✖ "+msg))
}
