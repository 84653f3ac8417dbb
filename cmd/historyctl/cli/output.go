package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/versionhistory-go/example/tasks"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

const openInterval = "open"

var recordHeaders = []string{"ID", "OPERATION", "VALID FROM", "VALID UNTIL", "FIELDS"}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// printer renders command results for humans or as JSON.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) printer {
	return printer{w: w}
}

func (p printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.w, args...)
}

func (p printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p printer) Task(task *tasks.Task) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)

	for _, line := range [][2]string{
		{"ID", task.ID},
		{"TITLE", task.Title},
		{"DESCRIPTION", task.Description},
		{"CREATED AT", formatTime(task.CreatedAt)},
		{"UPDATED AT", formatTime(task.UpdatedAt)},
	} {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", line[0], line[1])
	}

	return tw.Flush()
}

// recordView is the JSON shape of a HistoryRecord. An open interval has a null valid_until.
type recordView struct {
	ID         int64                 `json:"id"`
	EntityRef  string                `json:"entity_ref"`
	Operation  string                `json:"operation"`
	ValidFrom  time.Time             `json:"valid_from"`
	ValidUntil *time.Time            `json:"valid_until"`
	Fields     versionhistory.Fields `json:"fields"`
}

func (p printer) Records(records versionhistory.HistoryRecords, asJSON bool) error {
	if asJSON {
		return p.recordsJSON(records)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(recordHeaders, "\t"))

	for _, record := range records {
		validUntil := openInterval
		if !record.IsOpen(versionhistory.MaxValidUntil) {
			validUntil = formatTime(record.ValidUntil)
		}

		_, _ = fmt.Fprintln(tw, strings.Join([]string{
			fmt.Sprint(record.ID),
			record.Operation.String(),
			formatTime(record.ValidFrom),
			validUntil,
			formatFields(record.Fields),
		}, "\t"))
	}

	return tw.Flush()
}

func (p printer) recordsJSON(records versionhistory.HistoryRecords) error {
	views := make([]recordView, 0, len(records))

	for _, record := range records {
		view := recordView{
			ID:        record.ID,
			EntityRef: record.EntityRef,
			Operation: record.Operation.String(),
			ValidFrom: record.ValidFrom,
			Fields:    record.Fields,
		}

		if !record.IsOpen(versionhistory.MaxValidUntil) {
			validUntil := record.ValidUntil
			view.ValidUntil = &validUntil
		}

		views = append(views, view)
	}

	encoded, err := jsonAPI.MarshalIndent(views, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(p.w, string(encoded))

	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// formatFields renders name=value pairs ordered by name, strings quoted.
func formatFields(fields versionhistory.Fields) string {
	pairs := make([]string, 0, len(fields))

	for _, name := range fields.Names() {
		value := fields[name]
		if s, ok := value.(string); ok {
			pairs = append(pairs, fmt.Sprintf("%s=%q", name, s))
			continue
		}

		pairs = append(pairs, fmt.Sprintf("%s=%v", name, value))
	}

	return strings.Join(pairs, " ")
}
