package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/p-shah256/atsmatch/internal/analyzer"
	"github.com/p-shah256/atsmatch/internal/resume"
)

func downloadFile(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 response code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, resume.ErrFileTooLarge
	}
	return data, nil
}

// userMessage hides internal failures behind a generic reply.
func userMessage(err error) string {
	switch {
	case errors.Is(err, analyzer.ErrJobDescriptionTooShort),
		errors.Is(err, resume.ErrFileTooLarge),
		errors.Is(err, resume.ErrUnsupportedType),
		errors.Is(err, resume.ErrEmptyFile),
		errors.Is(err, resume.ErrNoText):
		return err.Error()
	}
	return "something went wrong while analyzing your resume"
}

func handleError(s *discordgo.Session, m *discordgo.MessageCreate, err error) {
	slog.Error("Processing error", "error", err, "message_id", m.ID)
	s.MessageReactionRemove(m.ChannelID, m.ID, "⏳", s.State.User.ID)
	s.MessageReactionAdd(m.ChannelID, m.ID, "❌")
	s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Error: %s", userMessage(err)))
}
