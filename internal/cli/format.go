package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/frontdesk/internal/dashboard"
	"github.com/evcraddock/frontdesk/internal/visitor"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printVisitorSummary prints a single visitor in text format.
func printVisitorSummary(w io.Writer, v *visitor.Visitor) {
	fmt.Fprintf(w, "Visitor #%d\n", v.ID)
	fmt.Fprintf(w, "  Name:     %s\n", v.FullName())
	if v.Company != "" {
		fmt.Fprintf(w, "  Company:  %s\n", v.Company)
	}
	if v.VisitorPhoneNumber != "" {
		fmt.Fprintf(w, "  Phone:    %s\n", v.VisitorPhoneNumber)
	}
	if v.ReasonForVisit != "" {
		fmt.Fprintf(w, "  Reason:   %s\n", v.ReasonForVisit)
	}
	fmt.Fprintf(w, "  Host:     %s\n", v.Host)
	fmt.Fprintf(w, "  Date:     %s\n", v.Date)
	if v.ExpectedTimeIn != nil {
		fmt.Fprintf(w, "  Expected: %s\n", *v.ExpectedTimeIn)
	}
	fmt.Fprintf(w, "  Time in:  %s\n", dash(v.TimeIn))
	fmt.Fprintf(w, "  Time out: %s\n", dash(v.TimeOut))
	fmt.Fprintf(w, "  Status:   %s\n", v.Status())
	if v.Photo != "" {
		fmt.Fprintln(w, "  Photo:    on file")
	}
}

// printVisitorTable prints a list of visitors as a formatted table.
func printVisitorTable(out io.Writer, visitors []*visitor.Visitor) error {
	if len(visitors) == 0 {
		fmt.Fprintln(out, "No visitors found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tHOST\tDATE\tIN\tOUT\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t-------\t----\t----\t--\t---\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, v := range visitors {
		timeIn := dash(v.TimeIn)
		if !v.HasArrived() && v.ExpectedTimeIn != nil {
			timeIn = "(" + *v.ExpectedTimeIn + ")"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, truncate(v.FullName(), 30), orDash(truncate(v.Company, 24)), truncate(v.Host, 20),
			v.Date, timeIn, dash(v.TimeOut), v.Status()); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d visitors\n", len(visitors))
	return nil
}

// printStats prints the dashboard summary and charts as text.
func printStats(w io.Writer, view *dashboard.View) {
	s := view.Summary
	fmt.Fprintf(w, "Total visitors:       %d\n", s.Total)
	fmt.Fprintf(w, "Today's visitors:     %d\n", s.Today)
	fmt.Fprintf(w, "Currently checked in: %d\n", s.CheckedIn)
	fmt.Fprintf(w, "Expected:             %d\n", s.Scheduled)

	fmt.Fprintln(w, "\nVisitors per day:")
	if len(view.Daily) == 0 {
		fmt.Fprintln(w, "  none")
	}
	maxDaily := 0
	for _, d := range view.Daily {
		maxDaily = max(maxDaily, d.Count)
	}
	for _, d := range view.Daily {
		fmt.Fprintf(w, "  %s  %s %d\n", d.Day, bar(d.Count, maxDaily, 30), d.Count)
	}

	fmt.Fprintln(w, "\nArrivals by hour:")
	maxHourly := 0
	for _, n := range view.Hourly {
		maxHourly = max(maxHourly, n)
	}
	if maxHourly == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for h, n := range view.Hourly {
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "  %02d:00  %s %d\n", h, bar(n, maxHourly, 30), n)
	}
}

// bar renders n scaled against top as a row of blocks at most width wide.
func bar(n, top, width int) string {
	if top <= 0 || n <= 0 {
		return ""
	}
	size := n * width / top
	if size == 0 {
		size = 1
	}
	return strings.Repeat("█", size)
}

func dash(s *string) string {
	return orDash(visitor.Text(s))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
