package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"smart-qa/internal/app"
	"smart-qa/internal/executor"
	"smart-qa/internal/llm"
	"smart-qa/internal/qa"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "smartqa",
		Short:         "Smart Q&A - summarize, ask, and extract entities from text",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSummarizeCmd(),
		newAskCmd(),
		newExtractCmd(),
		newClearCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func newSummarizeCmd() *cobra.Command {
	var file, save string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize text from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Build()
			if err != nil {
				return err
			}
			text, err := readInput(file, deps.Log)
			if err != nil {
				return err
			}
			summary, err := deps.QA.Summarize(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Println(summary)
			if save != "" {
				return writeOutput(save, summary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to text or PDF file (stdin when omitted)")
	cmd.Flags().StringVar(&save, "save", "", "write the summary to this file")
	return cmd
}

func newAskCmd() *cobra.Command {
	var file, question, save string
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer a question based only on the provided context",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Build()
			if err != nil {
				return err
			}
			contextText, err := readInput(file, deps.Log)
			if err != nil {
				return err
			}
			answer, err := deps.QA.Ask(cmd.Context(), contextText, question)
			if err != nil {
				return err
			}
			fmt.Println(answer)
			if save != "" {
				output := fmt.Sprintf("Question: %s\n\nAnswer: %s\n", question, answer)
				return writeOutput(save, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to context file (stdin when omitted)")
	cmd.Flags().StringVar(&question, "question", "", "question to ask")
	cmd.Flags().StringVar(&save, "save", "", "write the answer to this file")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func newExtractCmd() *cobra.Command {
	var file, save string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract people, dates and locations as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Build()
			if err != nil {
				return err
			}
			text, err := readInput(file, deps.Log)
			if err != nil {
				return err
			}
			entities, err := deps.QA.ExtractEntities(cmd.Context(), text)
			if err != nil && !errors.Is(err, qa.ErrMalformedExtraction) {
				return err
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, "warning: model output was not valid structured JSON; returning empty entities")
			}
			output, merr := json.MarshalIndent(entities, "", "  ")
			if merr != nil {
				return merr
			}
			fmt.Println(string(output))
			if save != "" {
				return writeOutput(save, string(output))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to text or PDF file (stdin when omitted)")
	cmd.Flags().StringVar(&save, "save", "", "write the extracted entities to this JSON file")
	return cmd
}

func newClearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove all cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Build()
			if err != nil {
				return err
			}
			if err := deps.QA.ClearCache(cmd.Context()); err != nil {
				return err
			}
			if err := deps.Broadcaster.PublishClear(cmd.Context()); err != nil {
				deps.Log.Warn("failed to broadcast cache clear", "err", err)
			}
			fmt.Println("cache cleared")
			return nil
		},
	}
}

// renderError turns operation errors into actionable messages,
// distinguishing rate limiting from other remote failures.
func renderError(err error) string {
	var rcErr *executor.RemoteCallError
	if errors.As(err, &rcErr) {
		switch rcErr.Kind() {
		case llm.KindRateLimited:
			return fmt.Sprintf("error: remote service is rate limiting requests; try again later (%v)", err)
		case llm.KindAuth:
			return fmt.Sprintf("error: authentication failed; check OPENAI_API_KEY (%v)", err)
		default:
			return fmt.Sprintf("error: remote call failed (%v)", err)
		}
	}
	return fmt.Sprintf("error: %v", err)
}
