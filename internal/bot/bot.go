package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/p-shah256/atsmatch/internal/cleaner"
	"github.com/p-shah256/atsmatch/internal/resume"
	"github.com/p-shah256/atsmatch/pkg/logger"
	"github.com/p-shah256/atsmatch/pkg/types"
)

// Analyzer runs a full resume analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error)
}

type Bot struct {
	session *discordgo.Session
	svc     Analyzer
	http    *http.Client
	clean   *cleaner.Cleaner
	timeout time.Duration
}

func New(token string, svc Analyzer) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	bot := &Bot{
		session: session,
		svc:     svc,
		http:    &http.Client{Timeout: 30 * time.Second},
		clean:   cleaner.NewCleaner(),
		timeout: 2 * time.Minute,
	}
	session.AddHandler(bot.onMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening Discord session: %w", err)
	}
	slog.Info("Bot is running...")
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	resumeAtt, jobAtt := classifyAttachments(m.Attachments)
	if resumeAtt == nil {
		return
	}
	slog.Info("Received resume", "file", resumeAtt.Filename, "author", m.Author.Username)

	if jobAtt == nil && strings.TrimSpace(m.Content) == "" {
		s.ChannelMessageSend(m.ChannelID, usage)
		return
	}
	go b.processResume(s, m, resumeAtt, jobAtt)
}

const usage = "Attach your resume (pdf, docx, txt, md or yaml) and paste the job description in the message, " +
	"or attach the job posting as an .html file."

func (b *Bot) processResume(s *discordgo.Session, m *discordgo.MessageCreate, resumeAtt, jobAtt *discordgo.MessageAttachment) {
	ctx, cancel := context.WithTimeout(logger.WithRequestID(context.Background(), m.ID), b.timeout)
	defer cancel()

	s.MessageReactionAdd(m.ChannelID, m.ID, "⏳")

	data, err := downloadFile(ctx, b.http, resumeAtt.URL, resume.MaxFileSize)
	if err != nil {
		handleError(s, m, err)
		return
	}
	parsed, err := resume.Parse(resumeAtt.Filename, resumeAtt.ContentType, data)
	if err != nil {
		handleError(s, m, err)
		return
	}

	jd := m.Content
	if jobAtt != nil {
		page, err := downloadFile(ctx, b.http, jobAtt.URL, resume.MaxFileSize)
		if err != nil {
			handleError(s, m, err)
			return
		}
		jd = b.clean.CleanHTML(string(page))
	} else if b.clean.LooksLikeHTML(jd) {
		jd = b.clean.CleanHTML(jd)
	}

	result, err := b.svc.Analyze(ctx, types.AnalysisRequest{
		JobDescription: jd,
		ResumeText:     parsed.Content,
	})
	if err != nil {
		handleError(s, m, err)
		return
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, FormatReport(result)); err != nil {
		handleError(s, m, fmt.Errorf("failed to send report: %w", err))
		return
	}

	s.MessageReactionsRemoveAll(m.ChannelID, m.ID)
	s.MessageReactionAdd(m.ChannelID, m.ID, "✅")
	slog.Info("Done processing!", "score", result.Score)
}

var resumeExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
	".yaml": true,
	".yml":  true,
}

// classifyAttachments picks the first resume file and the first .html job posting.
func classifyAttachments(atts []*discordgo.MessageAttachment) (resumeAtt, jobAtt *discordgo.MessageAttachment) {
	for _, att := range atts {
		ext := strings.ToLower(filepath.Ext(att.Filename))
		switch {
		case ext == ".html" || ext == ".htm":
			if jobAtt == nil {
				jobAtt = att
			}
		case resumeExtensions[ext]:
			if resumeAtt == nil {
				resumeAtt = att
			}
		}
	}
	return resumeAtt, jobAtt
}
