package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rillcheck/internal/rules"
)

var rulesFormat string

func init() {
	rulesCmd.Flags().StringVar(&rulesFormat, "format", "pretty", "output format (pretty|json)")
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the built-in rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		ruleList := rules.DefaultRules()

		switch rulesFormat {
		case "json":
			type rulePayload struct {
				ID           string `json:"id"`
				Category     string `json:"category"`
				Description  string `json:"description"`
				DefaultLevel string `json:"default_level"`
			}
			payload := make([]rulePayload, 0, len(ruleList))
			for _, r := range ruleList {
				payload = append(payload, rulePayload{
					ID:           r.ID,
					Category:     r.Category,
					Description:  r.Description,
					DefaultLevel: r.DefaultLevel.String(),
				})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		case "pretty":
			idColor := color.New(color.FgCyan, color.Bold)
			if !useColor(cmd) {
				idColor.DisableColor()
			}
			for _, r := range ruleList {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s, %s]\n    %s\n",
					idColor.Sprint(r.ID), r.Category, r.DefaultLevel.String(), r.Description)
			}
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", rulesFormat)
		}
	},
}
