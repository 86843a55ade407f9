package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/chat"
	"github.com/iksnae/voicechat/internal/llm"
	"github.com/iksnae/voicechat/internal/voice"
	"github.com/spf13/cobra"
)

var (
	chatVoice bool
	chatSpeak bool
	chatNew   bool
)

const chatHelp = `Commands:
  /new           start a new chat (the current one stays saved)
  /clear         delete the current chat and start over
  /listen        speak your next message
  /speak         toggle spoken replies
  /switch <id>   continue a stored session
  /help          show this help
  /quit          leave`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat in the current session.

Type a message and press Enter. With --voice an empty line starts
listening instead, and with --speak every reply is read aloud (its
spoken summary when one was generated).

` + chatHelp,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		gen, err := newGenerator(a.cfg)
		if err != nil {
			return err
		}

		adapter := newVoiceAdapter(a.cfg)
		if chatVoice && !adapter.RecognitionSupported() {
			internal.PrintWarning("Speech recognition is not available; using typed input")
		}
		if chatSpeak && !adapter.SynthesisSupported() {
			internal.PrintWarning("Speech synthesis is not available; replies will not be spoken")
		}

		o := chat.New(a.store, gen,
			chat.WithSummarizer(newSummarizer(gen)),
			chat.WithVoice(adapter, speakOptions(a.cfg)),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		loop := &chatLoop{
			o:         o,
			in:        cmd.InOrStdin(),
			out:       cmd.OutOrStdout(),
			listen:    chatVoice && adapter.RecognitionSupported(),
			speak:     chatSpeak && adapter.SynthesisSupported(),
			canListen: adapter.RecognitionSupported(),
			canSpeak:  adapter.SynthesisSupported(),
			name:      assistantLabel(a.cfg.LLM.AssistantName),
		}
		return loop.run(ctx, chatNew)
	},
}

// chatLoop reads lines and turns them into chat turns or slash commands
type chatLoop struct {
	o         *chat.Orchestrator
	in        io.Reader
	out       io.Writer
	listen    bool
	speak     bool
	canListen bool
	canSpeak  bool
	name      string
}

func assistantLabel(name string) string {
	if name == "" {
		return llm.DefaultAssistantName
	}
	return name
}

func (l *chatLoop) run(ctx context.Context, fresh bool) error {
	history := l.o.Resume()
	if fresh && len(history) > 0 {
		if _, err := l.o.NewChat(); err != nil {
			return err
		}
		history = nil
	}

	fmt.Fprintln(l.out, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", l.name)))
	fmt.Fprintln(l.out, timestampStyle.Render("Session: "+l.o.SessionID()))
	if len(history) == 0 {
		fmt.Fprintln(l.out, sessionMetaStyle.Render("Ask me anything. Type /help for commands."))
	}
	for _, msg := range history {
		printChatMessage(l.out, msg, l.name)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		l.prompt()
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.out)
			return nil
		case next, ok := <-lines:
			if !ok {
				fmt.Fprintln(l.out)
				return nil
			}
			line = strings.TrimSpace(next)
		}

		quit, err := l.handle(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(l.out)
				return nil
			}
			internal.PrintError(err.Error())
		}
		if quit {
			return nil
		}
	}
}

func (l *chatLoop) prompt() {
	label := "you"
	if l.listen {
		label = "you (Enter to talk)"
	}
	fmt.Fprint(l.out, internal.UserStyle.Render(label+" › "))
}

func (l *chatLoop) handle(ctx context.Context, line string) (bool, error) {
	if line == "" {
		if l.listen {
			return false, l.listenTurn(ctx)
		}
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, l.sendTurn(ctx, line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help":
		fmt.Fprintln(l.out, chatHelp)
	case "/new":
		if _, err := l.o.NewChat(); err != nil {
			return false, err
		}
		internal.PrintSuccess("Started a new conversation. The previous chat has been saved.")
	case "/clear":
		if _, err := l.o.ClearConversation(); err != nil {
			return false, err
		}
		internal.PrintSuccess("Conversation cleared. Starting a new session.")
	case "/listen":
		if !l.canListen {
			return false, voice.ErrRecognitionUnsupported
		}
		return false, l.listenTurn(ctx)
	case "/speak":
		if !l.canSpeak {
			return false, voice.ErrSynthesisUnsupported
		}
		l.speak = !l.speak
		if l.speak {
			internal.PrintInfo("Spoken replies on")
		} else {
			l.o.StopSpeaking()
			internal.PrintInfo("Spoken replies off")
		}
	case "/switch":
		if len(fields) != 2 {
			return false, errors.New("usage: /switch <session-id>")
		}
		if err := l.o.SwitchSession(fields[1]); err != nil {
			return false, err
		}
		for _, msg := range l.o.Messages() {
			printChatMessage(l.out, msg, l.name)
		}
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
	return false, nil
}

func (l *chatLoop) sendTurn(ctx context.Context, text string) error {
	var reply chat.Reply
	err := internal.ShowProgress(ctx, "Thinking...", func() error {
		var sendErr error
		reply, sendErr = l.o.Send(ctx, text, false)
		return sendErr
	})
	if err != nil {
		return err
	}
	l.showReply(ctx, reply)
	return nil
}

func (l *chatLoop) listenTurn(ctx context.Context) error {
	internal.PrintInfo("Listening... speak now")
	reply, err := l.o.ListenOnce(ctx, func(r voice.Result) {
		if !r.IsFinal {
			fmt.Fprintf(l.out, "\r%s", internal.MutedStyle.Render(r.Transcript))
		}
	})
	fmt.Fprint(l.out, "\r\033[K")
	if err != nil {
		return err
	}
	printChatMessage(l.out, reply.User, l.name)
	l.showReply(ctx, reply)
	return nil
}

func (l *chatLoop) showReply(ctx context.Context, reply chat.Reply) {
	printChatMessage(l.out, reply.Assistant, l.name)
	if reply.Failed() {
		internal.LogDebug("Turn failed: %v", reply.Err)
		return
	}
	if l.speak {
		if err := l.o.SpeakReply(ctx, reply.Assistant); err != nil && !errors.Is(err, voice.ErrSpeechInterrupted) {
			internal.PrintWarning(fmt.Sprintf("Could not speak the reply: %v", err))
		}
	}
}

// printChatMessage renders one turn of the transcript
func printChatMessage(w io.Writer, msg internal.ChatMessage, assistantName string) {
	label := internal.UserStyle.Render("👤 You")
	if msg.Role == internal.RoleAssistant {
		label = internal.AssistantStyle.Render("🤖 " + assistantName)
	}
	if msg.IsVoiceMessage {
		label += " " + internal.MutedStyle.Render("(voice)")
	}
	if !msg.Timestamp.IsZero() {
		label += " " + timestampStyle.Render(msg.Timestamp.Local().Format("15:04"))
	}

	fmt.Fprintln(w, label)
	fmt.Fprintln(w, messageContentStyle.Render(wrapText(strings.TrimSpace(msg.Content), 80)))
	if msg.Summary != "" {
		fmt.Fprintln(w, internal.MutedStyle.Render("  Summary: "+msg.Summary))
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatVoice, "voice", false, "Talk instead of typing (an empty line starts listening)")
	chatCmd.Flags().BoolVar(&chatSpeak, "speak", false, "Read replies aloud")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "Start a new chat instead of continuing the current one")
}
