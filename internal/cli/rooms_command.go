package cli

import (
	"context"
	"flag"
	"fmt"

	"roomcast"
)

func runRooms(args []string) error {
	fs := flag.NewFlagSet("rooms", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (yaml or json)")
	jsonOut := fs.Bool("json", false, "print as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := openApp(context.Background(), *configPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.eng.Ready() {
		return roomcast.ErrMainWindowNotFound
	}
	rooms := a.eng.OpenRooms()

	if *jsonOut {
		if rooms == nil {
			rooms = []string{}
		}
		return printJSON(map[string]any{"rooms": rooms})
	}
	if len(rooms) == 0 {
		fmt.Println("no room windows open")
		return nil
	}
	for _, r := range rooms {
		fmt.Println(r)
	}
	return nil
}
