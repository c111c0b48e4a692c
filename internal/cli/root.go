package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "send":
		return runSend(args[1:])
	case "rooms":
		return runRooms(args[1:])
	case "schedule":
		return runSchedule(args[1:])
	case "history":
		return runHistory(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("roomcast: send one message to many chat rooms through the desktop client")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  roomcast rooms")
	fmt.Println("  roomcast send --room \"Team A\" --room \"Team B\" --message \"hello\"")
	fmt.Println("  roomcast send --request batches.yaml")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  send      run one send job (flags or --request file)")
	fmt.Println("  rooms     list chat room windows that are currently open")
	fmt.Println("  schedule  run the schedules from the config file until interrupted")
	fmt.Println("  history   show recent runs")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --config <file> to load roomcast.yaml; without it defaults apply")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Do not use the keyboard, mouse or clipboard while a send is running")
}
