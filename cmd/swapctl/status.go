package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <request-id>",
	Short: "Check the status of a submitted operation",
	Long: `Fetch the status history of an accepted request. Polling is
side-effect free and can be repeated.

Examples:
  swapctl status 2f1c9a
  swapctl status 2f1c9a --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	requestID := args[0]

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	h, err := newHarness(verbose)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchStatus {
		if jsonOutput {
			fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
			os.Exit(1)
		}

		fmt.Printf("\nWatching request %s every %d seconds. Press Ctrl+C to stop.\n\n",
			color.CyanString(requestID), watchInterval)

		ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
		defer ticker.Stop()

		fetchAndDisplay(cmd, h, requestID)
		for range ticker.C {
			fetchAndDisplay(cmd, h, requestID)
		}
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking request status..."
		s.Start()
	}

	status, err := h.gateway.Status(cmd.Context(), requestID)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(data))
		return
	}

	displayStatus(status)
}

func fetchAndDisplay(cmd *cobra.Command, h *harness, requestID string) {
	status, err := h.gateway.Status(cmd.Context(), requestID)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	displayStatus(status)
}

func displayStatus(status *types.RequestStatus) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    REQUEST STATUS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Request: %s\n", color.CyanString(status.RequestID))

	if len(status.Statuses) > 0 {
		fmt.Println("\n  History:")
		for i, s := range status.Statuses {
			fmt.Printf("    %2d. %s\n", i+1, coloredStatus(s))
		}
	}

	if status.Reply != nil {
		fmt.Printf("\n  Terminal: %s\n", coloredStatus(status.Reply.Status))
		fmt.Printf("  Paid:     %s %s\n", status.Reply.PayAmount, status.Reply.PayToken)
		fmt.Printf("  Received: %s %s\n", status.Reply.ReceiveAmount, status.Reply.ReceiveToken)
	} else {
		fmt.Printf("\n  Terminal: %s\n", color.YellowString("pending"))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func coloredStatus(status string) string {
	switch {
	case status == types.ReplyStatusSuccess:
		return color.GreenString(status)
	case strings.Contains(strings.ToLower(status), "fail"):
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}
