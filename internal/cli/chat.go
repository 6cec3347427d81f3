package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/advisor"
	"github.com/tdurojaiye/taxadvisor/internal/render"
)

const chatGoodbye = "\nThank you for using the Nigerian Business Advisor. Goodbye!"

// greetings are answered locally instead of spending a model request.
var greetings = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening"}

func isGreeting(input string) bool {
	input = strings.ToLower(input)
	for _, g := range greetings {
		if input == g {
			return true
		}
	}
	return false
}

type chatCmd struct {
	app *App
}

func newChatCmd(app *App) *cobra.Command {
	cc := &chatCmd{app: app}
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask the Nigerian business and tax advisor questions interactively",
		Args:  cobra.NoArgs,
		RunE:  cc.run,
	}
}

func (c *chatCmd) run(cmd *cobra.Command, _ []string) error {
	app := c.app
	client, err := app.advisorClient()
	if err != nil {
		return err
	}

	out := app.stdout
	renderer := render.New(out)
	scanner := bufio.NewScanner(app.stdin)

	fmt.Fprintln(out, "\n--- Nigerian Business and Tax Advisor (Interactive) ---")
	fmt.Fprintln(out, "Type 'quit' or 'exit' at any prompt to end the session.")
	fmt.Fprintln(out)

	// A question typed at the continuation prompt is carried into the next
	// turn instead of asking again.
	var nextQuery string
	for {
		var query string
		if nextQuery != "" {
			query = nextQuery
			nextQuery = ""
			fmt.Fprintln(out, strings.Repeat("-", 50))
		} else {
			line, ok := app.prompt(scanner, "Ask a business or tax question (specific to Nigeria):\n> ")
			if !ok {
				fmt.Fprintln(out, chatGoodbye)
				return nil
			}
			query = line
		}

		switch {
		case query == "":
			continue
		case isQuit(query):
			fmt.Fprintln(out, chatGoodbye)
			return nil
		case isGreeting(query):
			fmt.Fprintln(out, "\nHello! I am your Nigerian Business and Tax Advisor. How can I assist you with your business strategy or tax compliance questions today?")
			fmt.Fprintln(out, strings.Repeat("-", 50))
			continue
		}

		advice := c.ask(cmd, client, query)
		fmt.Fprintln(out)
		renderer.Advice(advice)

		next, ok := app.prompt(scanner, "\nDo you have any other questions about Nigerian business or tax? (Type 'no' to exit, or enter your next question):\n> ")
		if !ok || isNo(next) {
			fmt.Fprintln(out, chatGoodbye)
			return nil
		}
		nextQuery = next
	}
}

func (c *chatCmd) ask(cmd *cobra.Command, client *advisor.Client, query string) *advisor.BusinessAdvice {
	ctx, cancel := c.app.modelContext(cmd.Context())
	defer cancel()

	advice, err := client.Advise(ctx, query)
	if err != nil {
		c.app.logger.Warn("advice request failed", zap.Error(err))
		return advisor.FallbackAdvice("The advisory service is currently unavailable due to a connection or API error. Please check your configuration and try again.")
	}
	return advice
}
