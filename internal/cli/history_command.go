package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

type historyRow struct {
	RunID        string    `json:"runId"`
	Module       string    `json:"module"`
	Started      time.Time `json:"started"`
	TookMS       int64     `json:"tookMs"`
	Success      bool      `json:"success"`
	TotalSuccess int       `json:"totalSuccess"`
	TotalFail    int       `json:"totalFail"`
	Message      string    `json:"message"`
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (yaml or json)")
	limit := fs.Int("n", 20, "number of runs to show")
	jsonOut := fs.Bool("json", false, "print as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, *configPath, false)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.hist == nil {
		return errors.New("history is disabled (history.driver: none)")
	}

	entries, err := a.hist.Recent(ctx, *limit)
	if err != nil {
		return err
	}
	rows := make([]historyRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, historyRow{
			RunID:        e.RunID,
			Module:       e.Module,
			Started:      e.Started,
			TookMS:       e.Took().Milliseconds(),
			Success:      e.Success,
			TotalSuccess: e.TotalSuccess,
			TotalFail:    e.TotalFail,
			Message:      firstLine(e.Message),
		})
	}
	if *jsonOut {
		return printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tMODULE\tOK\tFAIL\tRESULT\tRUN")
	for _, r := range rows {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Started.Local().Format("2006-01-02 15:04:05"), r.Module, r.TotalSuccess, r.TotalFail, status, r.RunID)
	}
	return tw.Flush()
}
