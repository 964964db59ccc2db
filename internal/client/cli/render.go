package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
)

// Terminal styles. lipgloss drops the colors when output is not a terminal.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

func (a *App) printSuccess(format string, args ...any) {
	fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *App) printWarning(format string, args ...any) {
	fmt.Fprintln(a.out, warningStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *App) printError(err error) {
	fmt.Fprintln(a.out, errorStyle.Render("Error: "+err.Error()))
}

func (a *App) printTitle(title string) {
	fmt.Fprintln(a.out, titleStyle.Render(title))
}

// expiryText describes an expiration date relative to now.
func expiryText(d *models.Date, now time.Time) string {
	if d == nil {
		return "-"
	}
	days := d.DaysUntil(now)
	switch {
	case days < 0:
		return fmt.Sprintf("%s (expired %d d ago)", d, -days)
	case days == 0:
		return fmt.Sprintf("%s (today)", d)
	default:
		return fmt.Sprintf("%s (in %d d)", d, days)
	}
}

const expiryColumn = 4

func renderItems(items []models.FoodItem, now time.Time) string {
	if len(items) == 0 {
		return mutedStyle.Render("No items.")
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.ID.String(),
			it.Name,
			orDash(models.Deref(it.Category)),
			strconv.Itoa(it.Quantity),
			expiryText(it.ExpirationDate, now),
			string(it.Source),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "CATEGORY", "QTY", "EXPIRES", "SOURCE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == expiryColumn && row >= 0 && row < len(items) {
				if d := items[row].ExpirationDate; d != nil {
					switch days := d.DaysUntil(now); {
					case days < 0:
						return cellStyle.Foreground(lipgloss.Color("#EF4444"))
					case days <= 2:
						return cellStyle.Foreground(lipgloss.Color("#F59E0B"))
					}
				}
			}
			return cellStyle
		})

	return t.String()
}

func renderItem(it *models.FoodItem, now time.Time) string {
	var b strings.Builder
	field := func(name, value string) {
		fmt.Fprintf(&b, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-10s", name+":")), value)
	}
	field("ID", it.ID.String())
	field("Name", it.Name)
	field("Category", orDash(models.Deref(it.Category)))
	field("Quantity", strconv.Itoa(it.Quantity))
	field("Expires", expiryText(it.ExpirationDate, now))
	field("Barcode", orDash(models.Deref(it.Barcode)))
	field("Image", orDash(models.Deref(it.ImageURL)))
	field("Source", string(it.Source))
	if !it.AddedAt.IsZero() {
		field("Added", it.AddedAt.Local().Format(time.DateTime))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDraft(d *models.FoodItemCreate, now time.Time) string {
	var b strings.Builder
	field := func(name, value string) {
		fmt.Fprintf(&b, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-10s", name+":")), value)
	}
	field("Name", d.Name)
	field("Category", orDash(models.Deref(d.Category)))
	field("Quantity", strconv.Itoa(d.Quantity))
	field("Expires", expiryText(d.ExpirationDate, now))
	field("Barcode", orDash(models.Deref(d.Barcode)))
	field("Source", orDash(string(d.Source)))
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
