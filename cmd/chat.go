package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/client"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Take an interview in the terminal against a running server",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("server", "s", "http://localhost:3001", "interview server base url")
	chatCmd.Flags().StringP("role", "r", "", "job title to interview for. Asked interactively when unset.")

	viper.BindPFlag("chat.server", chatCmd.Flags().Lookup("server"))
	viper.BindPFlag("chat.role", chatCmd.Flags().Lookup("role"))
}

func chat(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	logger, err := newLogger(config)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	role := strings.TrimSpace(viper.GetString("chat.role"))
	if role == "" {
		rolePrompt := promptui.Prompt{
			Label:    "Job title",
			Validate: notBlank("please enter a job title before starting the interview"),
		}
		role, err = rolePrompt.Run()
		if err != nil {
			exitOnPromptError(logger, err)
			return
		}
		role = strings.TrimSpace(role)
	}

	sessionID := uuid.NewString()
	c := client.New(viper.GetString("chat.server"), logger)

	logger.Debug("starting interview", zap.String("session_id", sessionID), zap.String("role_title", role))

	reply, err := c.Start(ctx, sessionID, role)
	if err != nil {
		logger.Fatal("starting interview", zap.Error(err), zap.String("hint", "make sure `hh-interviewer serve` is running"))
	}
	printTurn(reply.AIResponse)

	for {
		answerPrompt := promptui.Prompt{
			Label:    "Your answer",
			Validate: notBlank("please type an answer before submitting"),
		}

		answer, err := answerPrompt.Run()
		if err != nil {
			exitOnPromptError(logger, err)
			return
		}

		reply, err = c.Answer(ctx, sessionID, role, answer)
		if err != nil {
			logger.Fatal("submitting answer", zap.Error(err))
		}
		printTurn(reply.AIResponse)

		concluded, err := isConcluded(reply.ChatHistory, answer)
		if err != nil {
			logger.Fatal("reading chat history", zap.Error(err))
		}

		if concluded {
			logger.Info("interview finished", zap.String("session_id", sessionID), zap.Int("messages", len(reply.ChatHistory)))
			return
		}
	}
}

// isConcluded reports whether the last AI message of history was feedback,
// deriving the phase the same way the server does.
func isConcluded(history []interview.Message, answer string) (bool, error) {
	if len(history) == 0 {
		return false, nil
	}

	turns := make([]session.Turn, 0, len(history))
	for _, msg := range history {
		speaker, err := interview.SpeakerFromLabel(msg.Role)
		if err != nil {
			return false, err
		}
		turns = append(turns, session.Turn{Speaker: speaker, Text: msg.Text})
	}

	return interview.DecidePhase(turns[:len(turns)-1], &answer) == interview.Concluding, nil
}

func notBlank(message string) promptui.ValidateFunc {
	return func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New(message)
		}
		return nil
	}
}

func exitOnPromptError(logger *zap.Logger, err error) {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		logger.Info("exiting", zap.String("reason", "interrupted"))
		return
	}
	logger.Fatal("reading input", zap.Error(err))
}

func printTurn(text string) {
	fmt.Printf("\nInterviewer: %s\n\n", text)
}
