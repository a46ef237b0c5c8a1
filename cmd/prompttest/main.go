package main

// Try an assistant context against the configured model:
//   go run ./cmd/prompttest -role underwriter -message "Is a 46% DTI approvable with 6 months reserves?"

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"loanmvp/internal/assistant"
	"loanmvp/internal/llm"
	openai "loanmvp/internal/llm/openai"
	"loanmvp/internal/shared/config"
)

type result struct {
	Role   string `json:"role"`
	Prompt string `json:"prompt"`
	Reply  string `json:"reply,omitempty"`
}

func main() {
	cfg := config.Load()

	role := flag.String("role", assistant.ContextGeneral, "assistant context")
	message := flag.String("message", "", "user message")
	dryRun := flag.Bool("dry-run", false, "print the prompt without calling the model")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*message) == "" {
		exitErr("message is required")
	}

	res := result{Role: assistant.NormalizeContext(*role)}
	res.Prompt = assistant.BuildPrompt(assistant.SystemPrompt(res.Role), []assistant.Turn{
		{Role: assistant.TurnUser, Content: strings.TrimSpace(*message)},
	})

	if !*dryRun {
		client, err := openai.NewClient(cfg.OpenAIAPIKey, *model, cfg.OpenAITimeout)
		if err != nil {
			exitErr(err.Error())
		}
		reply, err := client.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: res.Prompt}})
		if err != nil {
			exitErr(fmt.Sprintf("llm complete: %v", err))
		}
		res.Reply = reply
	}

	pretty, err := prettyJSON(res)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func prettyJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
