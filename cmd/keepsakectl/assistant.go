package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	// ask: single round trip through the assistant
	askCmd := &cobra.Command{
		Use:   "ask PROMPT...",
		Short: "Send a prompt to the assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			payload := map[string]interface{}{
				"userId": userFlag,
				"prompt": strings.Join(args, " "),
			}
			data, err := doPostJSON(apiFlag+"/api/assistant/process", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(askCmd)

	// update: commit phase of the update workflow
	var newValue string
	updateCmd := &cobra.Command{
		Use:   "update MEMORY_ID",
		Short: "Apply a new value to a chosen memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			payload := map[string]interface{}{
				"userId":   userFlag,
				"memoryId": args[0],
				"newValue": newValue,
			}
			data, err := doPostJSON(apiFlag+"/api/assistant/memory/update", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&newValue, "value", "n", "", "Replacement text (required)")
	_ = updateCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(updateCmd)

	// delete: commit phase of the delete workflow
	deleteCmd := &cobra.Command{
		Use:   "delete MEMORY_ID",
		Short: "Delete a chosen memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			payload := map[string]interface{}{
				"userId":   userFlag,
				"memoryId": args[0],
			}
			data, err := doPostJSON(apiFlag+"/api/assistant/memory/delete", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(deleteCmd)

	// health
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(apiFlag + "/api/health")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)
}
