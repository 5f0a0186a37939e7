package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"itask-cli/internal/admin"
	"itask-cli/internal/format"
	"itask-cli/internal/model"
)

type RenderOptions struct {
	// Owner is shown under the title when set.
	Owner string
	// Now stamps the export; zero means time.Now.
	Now time.Time
}

func (o RenderOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now.UTC()
}

// RenderTodosMarkdown renders the list as two GFM task lists, pending first.
func RenderTodosMarkdown(items []model.Todo, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# Todos")
	writeLn("")
	if opt.Owner != "" {
		writeLn("- Owner: " + opt.Owner)
	}
	writeLn("- Exported: " + opt.now().Format(time.RFC3339))

	for _, tab := range []model.Tab{model.TabPending, model.TabCompleted} {
		writeLn("")
		writeLn("## " + tab.Label())
		writeLn("")
		n := 0
		for _, td := range items {
			if !tab.Holds(td) {
				continue
			}
			box := "[ ]"
			if td.Completed {
				box = "[x]"
			}
			writeLn("- " + box + " " + oneLine(td.Text))
			n++
		}
		if n == 0 {
			writeLn("_None._")
		}
	}
	return buf.String()
}

// RenderDashboardMarkdown renders totals, users and feedback as tables.
func RenderDashboardMarkdown(snap admin.Snapshot, opt RenderOptions) (string, error) {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# Admin dashboard")
	writeLn("")
	writeLn("- Exported: " + opt.now().Format(time.RFC3339))
	writeLn("")
	writeLn("## Totals")
	writeLn("")
	if err := format.WriteTable(&buf, table{
		header: []string{"Users", "Admins", "Feedback", "Average rating"},
		rows: [][]string{{
			fmt.Sprint(snap.Stats.TotalUsers),
			fmt.Sprint(snap.Stats.TotalAdmins),
			fmt.Sprint(snap.Stats.TotalFeedbacks),
			fmt.Sprintf("%.1f", snap.Stats.AvgRating),
		}},
	}); err != nil {
		return "", err
	}

	writeLn("")
	writeLn("## Users")
	writeLn("")
	users := table{header: []string{"ID", "Name", "Email", "Role"}}
	for _, u := range snap.Users {
		users.rows = append(users.rows, []string{u.ID, oneLine(u.Name), u.Email, string(u.Role)})
	}
	if err := format.WriteTable(&buf, users); err != nil {
		return "", err
	}

	writeLn("")
	writeLn("## Feedback")
	writeLn("")
	if len(snap.Feedbacks) == 0 {
		writeLn("_None._")
		return buf.String(), nil
	}
	fb := table{header: []string{"Rating", "From", "Suggestion"}}
	for _, f := range snap.Feedbacks {
		from := f.UserName
		if f.UserEmail != "" {
			from = strings.TrimSpace(from + " <" + f.UserEmail + ">")
		}
		fb.rows = append(fb.rows, []string{fmt.Sprint(f.Rating), from, oneLine(f.Suggestion)})
	}
	if err := format.WriteTable(&buf, fb); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type table struct {
	header []string
	rows   [][]string
}

func (t table) Table() ([]string, [][]string) { return t.header, t.rows }

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
