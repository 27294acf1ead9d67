package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fleveque/stock-assistant/internal/app"
	"github.com/fleveque/stock-assistant/internal/service"
	"github.com/fleveque/stock-assistant/internal/session"
)

const replHelp = "Commands: /history shows the conversation, /reset starts over, /quit exits."

// repl is the interactive chat loop: one line in, one answer out.
type repl struct {
	chat       *service.ChatService
	in         io.Reader
	out        io.Writer
	title      string
	desc       string
	configured bool
}

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintf(r.out, "📈 %s\n", r.title)
	if r.desc != "" {
		fmt.Fprintf(r.out, "%s\n", r.desc)
	}
	fmt.Fprintln(r.out, "---")
	if !r.configured {
		printMissingKey(r.out)
	}
	fmt.Fprintln(r.out, replHelp)

	sess := r.chat.CreateSession()
	scanner := bufio.NewScanner(r.in)

	for {
		fmt.Fprint(r.out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/history":
			r.printHistory(sess)
			continue
		case "/reset":
			fresh, err := r.chat.ResetSession(sess.ID())
			if err != nil {
				return fmt.Errorf("resetting session: %w", err)
			}
			sess = fresh
			fmt.Fprintln(r.out, "Conversation cleared.")
			continue
		}

		fmt.Fprintln(r.out, "Thinking...")
		turn, err := r.chat.Send(ctx, sess.ID(), line)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(r.out, turn.Content)
	}
}

func (r *repl) printHistory(sess *session.Session) {
	turns := sess.Turns()
	if len(turns) == 0 {
		fmt.Fprintln(r.out, "(no messages yet)")
		return
	}
	for _, t := range turns {
		fmt.Fprintf(r.out, "[%s] %s: %s\n", t.Timestamp.Local().Format("15:04:05"), t.Role, t.Content)
	}
}

func printMissingKey(w io.Writer) {
	fmt.Fprintln(w, "warning: LLM API key not found. Create a .env file with GOOGLE_API_KEY=your_api_key, or set it as an environment variable.")
	fmt.Fprintln(w, app.MissingKeyHelp)
}
