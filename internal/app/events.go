package app

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bytedance/sonic"

	"aisha/internal/dto"
)

const eventTimeFormat = "2006-01-02 15:04:05"

// PrintEvents writes stored commands and snapshots matching filter to w,
// as text or as indented JSON.
func (a *App) PrintEvents(w io.Writer, filter dto.EventFilter, asJSON bool) error {
	data, err := a.events.Events(filter)
	if err != nil {
		return err
	}

	if asJSON {
		body, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode events: %w", err)
		}
		_, err = fmt.Fprintln(w, string(body))
		return err
	}

	fmt.Fprintf(w, "Commands (%d)\n", len(data.Commands))
	for _, c := range data.Commands {
		action := c.Action
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(w, "  %s  %-6s %-10s %s\n", c.CreatedAt.Local().Format(eventTimeFormat), c.Source, action, c.Text)
	}

	fmt.Fprintf(w, "Snapshots (%d)\n", len(data.Snapshots))
	for _, s := range data.Snapshots {
		labels := make([]string, 0, len(s.Detections))
		for _, d := range s.Detections {
			labels = append(labels, fmt.Sprintf("%s %.2f", d.Label, d.Confidence))
		}
		fmt.Fprintf(w, "  %s  %-8s %s  [%s]\n", s.Timestamp.Local().Format(eventTimeFormat), s.Camera, s.Filename, strings.Join(labels, ", "))
	}

	printCounts(w, "Labels", data.Labels)
	printCounts(w, "Actions", data.Actions)
	return nil
}

// ClearEvents deletes every stored event and snapshot file.
func (a *App) ClearEvents(w io.Writer) error {
	removed, err := a.events.Clear()
	if err != nil {
		return err
	}
	a.logger.Info("Cleared events, %d snapshot(s) removed", removed)
	fmt.Fprintf(w, "Removed %d snapshot(s) and all commands\n", removed)
	return nil
}

// ImportEvents re-indexes snapshot files in IMAGE_DIR missing from the store.
func (a *App) ImportEvents(w io.Writer) error {
	imported, skipped, err := a.events.Import(a.config.ImageDirectory)
	if err != nil {
		return err
	}
	a.logger.Info("Imported %d snapshot(s) from %s", imported, a.config.ImageDirectory)
	fmt.Fprintf(w, "Imported %d snapshot(s)", imported)
	if skipped > 0 {
		fmt.Fprintf(w, ", skipped %d file(s) with unknown names", skipped)
	}
	fmt.Fprintln(w)
	return nil
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:", title)
	for _, k := range keys {
		name := k
		if name == "" {
			name = "unmatched"
		}
		fmt.Fprintf(w, " %s=%d", name, counts[k])
	}
	fmt.Fprintln(w)
}
