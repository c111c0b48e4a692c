package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"roomcast/internal/dispatch"
	"roomcast/internal/tui"
	"roomcast/model"
	"roomcast/pkg/logx"
	"roomcast/progress"
)

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (yaml or json)")
	requestPath := fs.String("request", "", "request file (yaml or json); overrides the payload flags")
	var rooms stringList
	fs.Var(&rooms, "room", "target room name (repeatable)")
	message := fs.String("message", "", "message text")
	file := fs.String("file", "", "attachment path")
	textFirst := fs.Bool("text-first", false, "send the text before the attachment")
	delayMin := fs.Float64("delay-min", model.DefaultDelayMin, "minimum seconds between rooms")
	delayMax := fs.Float64("delay-max", model.DefaultDelayMax, "maximum seconds between rooms")
	module := fs.String("module", dispatch.KeyTargetSender, "module key")
	jsonOut := fs.Bool("json", false, "print the response as JSON")
	plain := fs.Bool("plain", false, "log progress instead of showing the progress view")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	var raw json.RawMessage
	if strings.TrimSpace(*requestPath) != "" {
		var err error
		if raw, err = readRequestFile(*requestPath); err != nil {
			return err
		}
	} else {
		if len(rooms) == 0 {
			return errors.New("send: at least one --room or a --request file is required")
		}
		req := model.SendRequest{
			Batches:   []model.SendBatch{{Type: "cli", Rooms: rooms, Message: *message}},
			FilePath:  strings.TrimSpace(*file),
			FileFirst: !*textFirst,
			DelayMin:  *delayMin,
			DelayMax:  *delayMax,
		}
		b, err := json.Marshal(req)
		if err != nil {
			return err
		}
		raw = b
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, *configPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	run := func(ctx context.Context, rep progress.Reporter) (model.Response, error) {
		return a.exec.Run(ctx, *module, raw, rep)
	}

	var resp model.Response
	if *jsonOut || *plain || !stdinIsTTY() {
		resp, err = run(ctx, progress.Log(a.log.With(logx.String("comp", "send"))))
	} else {
		resp, err = tui.Run(ctx, "roomcast · "+*module, run)
	}
	if err != nil {
		return err
	}

	if *jsonOut {
		if err := printJSON(resp); err != nil {
			return err
		}
	} else if *plain || !stdinIsTTY() {
		fmt.Println(resp.Message)
		if resp.Log != "" {
			fmt.Println()
			fmt.Println(resp.Log)
		}
	}
	if !resp.Success {
		return errors.New(firstLine(resp.Message))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
