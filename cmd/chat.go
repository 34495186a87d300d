package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/chat"
	"github.com/spigell/resume-matcher/internal/store"
)

const promptNewChat = "Start a new chat"

var (
	chatUser  string
	chatID    string
	chatTitle string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant about your resume",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, config := mustSetup()

		if err := runChat(ctx, cmd.OutOrStdout(), config, logger); err != nil {
			logger.Fatal("chat", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "user whose latest document is used as context")
	chatCmd.Flags().StringVarP(&chatID, "chat", "c", "", "continue an existing chat")
	chatCmd.Flags().StringVarP(&chatTitle, "title", "t", "", "title for a new chat")
	chatCmd.MarkFlagRequired("user")
}

func runChat(ctx context.Context, out io.Writer, config *Config, logger *zap.Logger) error {
	if !config.AI.Enabled {
		return errors.New("chat requires ai.enabled")
	}

	provider, err := newProvider(ctx, config.AI, logger)
	if err != nil {
		return fmt.Errorf("creating ai provider: %w", err)
	}

	st, err := openStore(ctx, config.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	current, err := selectChat(ctx, st, config.AI.Provider)
	if err != nil {
		return err
	}

	logger.Info("chat session", zap.String("chat_id", current.ID), zap.String("title", current.Title))

	history, err := st.Messages(ctx, current.ID)
	if err != nil {
		return err
	}
	for _, m := range history {
		fmt.Fprintf(out, "%s: %s\n", m.Role, m.Content)
	}

	svc := chat.New(provider, st, st, chat.Config{
		HistoryLimit:      config.Chat.HistoryLimit,
		ResumePrefixLimit: config.Chat.ResumePrefixLimit,
	}, logger.Named("chat"))

	input := promptui.Prompt{Label: "You"}
	for {
		line, err := input.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		fmt.Fprint(out, "assistant: ")
		if err := svc.Send(ctx, chatUser, current.ID, line, printEvent(out)); err != nil {
			return err
		}
	}
}

// selectChat resumes --chat, or lets the user pick one of their chats.
func selectChat(ctx context.Context, st *store.Store, provider string) (*store.Chat, error) {
	if chatID != "" {
		return st.GetChat(ctx, chatUser, chatID)
	}

	chats, err := st.ListChats(ctx, chatUser)
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return st.CreateChat(ctx, chatUser, chatTitle, provider)
	}

	items := make([]string, 0, len(chats)+1)
	items = append(items, promptNewChat)
	for _, c := range chats {
		items = append(items, fmt.Sprintf("%s %s (%s)", c.ID, c.Title, c.UpdatedAt.Format("2006-01-02 15:04")))
	}

	selectPrompt := promptui.Select{
		Label: "Choose a chat and press ENTER",
		Items: items,
	}

	idx, _, err := selectPrompt.Run()
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return st.CreateChat(ctx, chatUser, chatTitle, provider)
	}

	selected := chats[idx-1]
	return &selected, nil
}

func printEvent(out io.Writer) func(chat.Event) {
	return func(e chat.Event) {
		switch e.Type {
		case chat.EventChunk, chat.EventFallback:
			fmt.Fprint(out, e.Text)
		case chat.EventDone:
			fmt.Fprintln(out)
		}
	}
}
