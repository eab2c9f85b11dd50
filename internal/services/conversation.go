package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chatrelay/chatrelay-backend/internal/config"
	"github.com/chatrelay/chatrelay-backend/internal/providers"
	"github.com/chatrelay/chatrelay-backend/internal/repository"
	"github.com/chatrelay/chatrelay-backend/internal/telegram"
)

// Sender delivers text to a chat participant. Failures are logged by
// the orchestrator and never block update handling.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// route pairs a command prefix with its handler. Routes are evaluated
// in order, first match wins, so the routing contract stays auditable.
type route struct {
	command string
	handler func(ctx context.Context, chatID, text string) error
}

// ConversationService is the top-level control flow for one inbound
// update: quota gate, command dispatch, or the default chat turn. It is
// stateless across updates; all state lives in the backing store.
type ConversationService struct {
	cfg       *config.Config
	quota     *QuotaService
	sessions  *SessionService
	history   *HistoryService
	summaries *SummaryService
	provider  providers.CompletionProvider
	sender    Sender
	logger    *logrus.Logger
	routes    []route
}

// NewConversationService creates the orchestrator and wires its route
// table.
func NewConversationService(
	cfg *config.Config,
	quota *QuotaService,
	sessions *SessionService,
	history *HistoryService,
	summaries *SummaryService,
	provider providers.CompletionProvider,
	sender Sender,
	logger *logrus.Logger,
) *ConversationService {
	s := &ConversationService{
		cfg:       cfg,
		quota:     quota,
		sessions:  sessions,
		history:   history,
		summaries: summaries,
		provider:  provider,
		sender:    sender,
		logger:    logger,
	}

	s.routes = []route{
		{command: "/start", handler: s.handleStart},
		{command: "/help", handler: s.handleHelp},
		{command: "/youtube", handler: s.handlePromo},
		{command: "/newchat", handler: s.handleNewChat},
		{command: "/summary100", handler: s.summaryHandler(cfg.History.RecentWindow)},
		{command: "/summaryall", handler: s.summaryHandler(cfg.History.FullWindow)},
	}

	return s
}

// HandleUpdate processes one inbound update. It never returns an error:
// any failure is logged and converted into a generic apology reply so
// the transport can always be acknowledged.
func (s *ConversationService) HandleUpdate(ctx context.Context, upd telegram.Update) {
	chatID, text, ok := upd.Command()
	if !ok {
		s.logger.WithField("update_id", upd.UpdateID).Info("update without message or callback")
		return
	}

	log := s.logger.WithFields(logrus.Fields{
		"chat_id":   chatID,
		"update_id": upd.UpdateID,
	})
	log.WithField("text", text).Debug("processing update")

	if err := s.process(ctx, chatID, text); err != nil {
		log.WithError(err).Error("update processing failed")
		s.reply(ctx, chatID, s.cfg.Replies.SomethingWentWrong)
	}
}

func (s *ConversationService) process(ctx context.Context, chatID, text string) error {
	user, err := s.quota.CheckAndAdvanceMonth(ctx, chatID)
	if err != nil {
		// Terminal for this update; the user gets the registration
		// notice rather than the generic apology.
		s.logger.WithError(err).WithField("chat_id", chatID).Error("user registration failed")
		s.reply(ctx, chatID, s.cfg.Replies.RegistrationFailed)
		return nil
	}

	if s.quota.Exceeded(user) {
		s.reply(ctx, chatID, s.cfg.Replies.QuotaExceeded)
		return nil
	}

	lowered := strings.ToLower(text)
	for _, r := range s.routes {
		if strings.HasPrefix(lowered, r.command) {
			return r.handler(ctx, chatID, text)
		}
	}

	return s.chatTurn(ctx, chatID, user, text)
}

func (s *ConversationService) handleStart(ctx context.Context, chatID, _ string) error {
	s.reply(ctx, chatID, s.cfg.Replies.Welcome)
	return nil
}

func (s *ConversationService) handleHelp(ctx context.Context, chatID, _ string) error {
	s.reply(ctx, chatID, s.cfg.Replies.Help)
	return nil
}

func (s *ConversationService) handlePromo(ctx context.Context, chatID, _ string) error {
	s.reply(ctx, chatID, s.cfg.Replies.Promo)
	return nil
}

func (s *ConversationService) handleNewChat(ctx context.Context, chatID, _ string) error {
	if _, err := s.sessions.StartNew(ctx, chatID); err != nil {
		return err
	}
	s.reply(ctx, chatID, s.cfg.Replies.NewChat)
	return nil
}

// summaryHandler builds a handler that compacts the user's recent
// history (across sessions) into the active session's context. The
// summary overwrites whatever context was there before.
func (s *ConversationService) summaryHandler(limit int) func(ctx context.Context, chatID, text string) error {
	return func(ctx context.Context, chatID, _ string) error {
		turns, err := s.history.RecentByUser(ctx, chatID, limit)
		if err != nil {
			return err
		}

		summary, err := s.summaries.Summarize(ctx, turns)
		if err != nil {
			s.logger.WithError(err).WithField("chat_id", chatID).Error("summarization failed")
			summary = s.cfg.Replies.InferenceFailed
		}

		session, err := s.sessions.ActiveOrCreate(ctx, chatID)
		if err != nil {
			return err
		}
		if err := s.sessions.ReplaceContext(ctx, session.ID, summary); err != nil {
			return err
		}

		s.reply(ctx, chatID, fmt.Sprintf(s.cfg.Replies.SummaryCreated, summary))
		return nil
	}
}

// chatTurn is the default path: append the user's message, assemble the
// prompt from context plus the rolling history window, ask the model,
// record the answer, count the turn, reply.
func (s *ConversationService) chatTurn(ctx context.Context, chatID string, user *repository.User, text string) error {
	session, err := s.sessions.ActiveOrCreate(ctx, chatID)
	if err != nil {
		return err
	}

	if err := s.history.Append(ctx, session.ID, chatID, repository.RoleUser, text); err != nil {
		return err
	}

	turns, err := s.history.RecentBySession(ctx, session.ID, s.cfg.History.SessionWindow)
	if err != nil {
		return err
	}

	prompt := s.buildPrompt(session.Context, turns, text)

	answer, err := s.complete(ctx, prompt)
	if err != nil {
		// Not fatal for the update: the apology stands in for the
		// model's answer and the turn still counts against quota.
		s.logger.WithError(err).WithField("chat_id", chatID).Error("inference failed")
		answer = s.cfg.Replies.InferenceFailed
	}

	if err := s.history.Append(ctx, session.ID, chatID, repository.RoleAssistant, answer); err != nil {
		return err
	}

	if err := s.quota.Increment(ctx, user); err != nil {
		return err
	}

	s.reply(ctx, chatID, answer)
	return nil
}

func (s *ConversationService) buildPrompt(sessionContext string, turns []repository.ChatTurn, text string) string {
	p := s.cfg.Prompt

	var b strings.Builder
	b.WriteString(p.ContextHeader)
	b.WriteString("\n")
	if sessionContext != "" {
		b.WriteString(sessionContext)
	} else {
		b.WriteString(p.NoContextMarker)
	}
	b.WriteString("\n\n")

	for _, turn := range turns {
		if turn.Role == repository.RoleUser {
			b.WriteString(p.UserLabel)
		} else {
			b.WriteString(p.AssistantLabel)
		}
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.UserMessageHeader)
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n")
	b.WriteString(p.ResponseInstruction)

	return b.String()
}

func (s *ConversationService) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.provider.Complete(ctx, providers.CompletionRequest{
		Model:     s.cfg.Provider.Model,
		MaxTokens: s.cfg.Provider.MaxTokens,
		Messages: []providers.Message{
			{Role: repository.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// reply logs send failures and swallows them; an undeliverable reply
// must not fail the update.
func (s *ConversationService) reply(ctx context.Context, chatID, text string) {
	if err := s.sender.Send(ctx, chatID, text); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("failed to send reply")
	}
}
