// formtool works with form templates from the command line: validate
// conditional logic rules, render documentation, and simulate rule
// evaluation against sample form data.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/flow"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/tools"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "formtool",
		Short: "Inspect and test dynamic form templates",
	}

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(docCmd())
	rootCmd.AddCommand(simulateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate TEMPLATE",
		Short: "Check a template's conditional logic rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := template.Load(args[0])
			if err != nil {
				return err
			}

			good := color.New(color.FgGreen)
			bad := color.New(color.FgRed)
			warn := color.New(color.FgYellow)

			problems := 0
			for _, v := range template.ValidateTemplate(t) {
				if v.Valid() && len(v.Warnings) == 0 {
					continue
				}
				fmt.Printf("rule %s\n", v.RuleID)
				for _, e := range v.Errors {
					fmt.Printf("  %s %s\n", bad.Sprint("error"), e)
					problems++
				}
				for _, w := range v.Warnings {
					fmt.Printf("  %s %s\n", warn.Sprint("warning"), w)
				}
			}

			if problems > 0 {
				return fmt.Errorf("%d problem(s) in %d rule(s)", problems, len(t.ConditionalLogic))
			}
			good.Printf("all %d rule(s) valid\n", len(t.ConditionalLogic))
			return nil
		},
	}
}

func docCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doc TEMPLATE",
		Short: "Render a template as HTML documentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := template.Load(args[0])
			if err != nil {
				return err
			}
			return tools.RenderTemplateHTML(t, os.Stdout)
		},
	}
}

func simulateCmd() *cobra.Command {
	var dataFile string

	cmd := &cobra.Command{
		Use:   "simulate TEMPLATE",
		Short: "Evaluate a template's rules against sample form data",
		Long: `Simulate loads a template and a JSON object of form data, runs the
conditional logic engine, and prints the resulting form state: which
rules fired, in what order their actions applied, and the effective
visibility and requiredness of every field they touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := template.Load(args[0])
			if err != nil {
				return err
			}

			data := conditional.FormData{}
			if dataFile != "" {
				bs, err := os.ReadFile(dataFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(bs, &data); err != nil {
					return fmt.Errorf("parsing %s: %w", dataFile, err)
				}
			}

			o := &flow.Orchestrator{}
			state, err := o.ApplyConditionalLogic(cmd.Context(), t, data)
			if err != nil {
				return err
			}

			for _, a := range state.Actions {
				fmt.Printf("rule %s (priority %d): %s %s %s\n",
					a.RuleID, a.Priority, a.Element.Action,
					a.Element.ElementType, a.Element.ElementID)
			}
			for _, a := range state.Actions {
				switch a.Element.ElementType {
				case template.ElemField:
					id := a.Element.ElementID
					fmt.Printf("field %s: visible=%v required=%v enabled=%v\n",
						id, state.FieldVisible(id), state.FieldRequired[id],
						state.FieldEnabledState(id))
				case template.ElemPage:
					id := a.Element.ElementID
					fmt.Printf("page %s: visible=%v skipped=%v\n",
						id, state.PageVisible(id), state.PageSkipped(id))
				}
			}
			for _, m := range state.Messages {
				fmt.Printf("message (%s) %s: %s\n", m.Kind, m.ElementID, m.Text)
			}
			if state.RedirectURL != "" {
				fmt.Printf("redirect: %s\n", state.RedirectURL)
			}
			for _, e := range state.Errors {
				color.New(color.FgRed).Printf("error: %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataFile, "data", "", "JSON file of form data")
	return cmd
}
