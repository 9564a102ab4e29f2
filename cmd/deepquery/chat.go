package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/bububa/deepquery/components"
	"github.com/bububa/deepquery/flows"
	"github.com/bububa/deepquery/schema"
)

var (
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive research session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(a, cmd)
		},
	}
}

func runChat(a *app, cmd *cobra.Command) error {
	flow, err := a.researchFlow()
	if err != nil {
		return err
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return err
	}
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	w := cmd.OutOrStdout()

	// session state: conversation history and model selection are owned here
	// and threaded through each flow call
	mem := components.NewMemory()
	model := ""

	def, _ := a.registry.Default()
	fmt.Fprintf(w, "deepquery, using %s. Type /help for commands.\n", def.DisplayName)
	for {
		input, err := line.Prompt("you> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if strings.HasPrefix(input, "/") {
			if quit := a.handleCommand(w, input, mem, &model); quit {
				return nil
			}
			continue
		}
		answer, err := flow.Run(cmd.Context(), input, mem.History(), model)
		if err != nil {
			renderFlowError(w, err)
			continue
		}
		mem.NewTurn()
		mem.NewMessage(components.UserRole, schema.String(input))
		mem.NewMessage(components.AssistantRole, schema.String(answer.Markdown))
		if out, err := renderer.Render(answer.Markdown); err == nil {
			fmt.Fprint(w, out)
		} else {
			fmt.Fprintln(w, answer.Markdown)
		}
		printSources(w, answer.Sources)
	}
}

func (a *app) handleCommand(w io.Writer, input string, mem *components.Memory, model *string) (quit bool) {
	cmd, arg, _ := strings.Cut(input, " ")
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/reset":
		mem.Reset()
		fmt.Fprintln(w, "Conversation history cleared.")
	case "/models":
		for _, cfg := range a.registry.Available() {
			marker := " "
			if cfg.Name == *model {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %s (%s)\n", marker, cfg.Name, cfg.DisplayName)
		}
	case "/model":
		arg = strings.TrimSpace(arg)
		if arg == "" {
			fmt.Fprintln(w, "Usage: /model <name>; see /models for the list.")
			return false
		}
		cfg, err := a.registry.Resolve(arg)
		if err != nil {
			fmt.Fprintln(w, err)
			return false
		}
		*model = cfg.Name
		fmt.Fprintf(w, "Switched to %s.\n", cfg.DisplayName)
	case "/help":
		fmt.Fprintln(w, "Commands: /model <name>, /models, /reset, /quit")
	default:
		fmt.Fprintf(w, "Unknown command %s; type /help.\n", cmd)
	}
	return false
}

// renderFlowError displays guidance for classified failures. The session
// never terminates on a rate-limit or balance failure.
func renderFlowError(w io.Writer, err error) {
	var balErr *flows.InsufficientBalanceError
	var rlErr *flows.RateLimitError
	switch {
	case errors.As(err, &balErr):
		fmt.Fprintln(w, hintStyle.Render("The provider reports an exhausted balance. Add funds or switch backend with /model."))
	case errors.As(err, &rlErr):
		fmt.Fprintln(w, hintStyle.Render(fmt.Sprintf("Rate limited. Retry in about %d seconds, or switch backend with /model.", rlErr.RetryAfterSeconds)))
	default:
		fmt.Fprintf(w, "Request failed: %v\n", err)
	}
}

func printSources(w io.Writer, sources []flows.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w, sourceStyle.Render("Sources:"))
	for i, src := range sources {
		fmt.Fprintln(w, sourceStyle.Render(fmt.Sprintf("  %d. %s (%s)", i+1, src.Title, src.URL)))
	}
	fmt.Fprintln(w)
}
