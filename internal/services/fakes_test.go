package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chatrelay/chatrelay-backend/internal/config"
	"github.com/chatrelay/chatrelay-backend/internal/providers"
	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

// In-memory doubles for the storage, inference and transport
// collaborators.

type fakeUserRepo struct {
	users     map[string]*repository.User // keyed by telegram id
	getErr    error
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*repository.User{}}
}

func (r *fakeUserRepo) GetByTelegramID(_ context.Context, telegramID string) (*repository.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	user, ok := r.users[telegramID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user repository.User) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	user.CreatedAt = time.Now()
	r.users[user.TelegramID] = &user
	return user.ID, nil
}

func (r *fakeUserRepo) ResetMonth(_ context.Context, id, month string) error {
	for _, user := range r.users {
		if user.ID == id {
			user.Month = month
			user.UsageCount = 0
		}
	}
	return nil
}

func (r *fakeUserRepo) IncrementUsage(_ context.Context, id string) error {
	for _, user := range r.users {
		if user.ID == id {
			user.UsageCount++
		}
	}
	return nil
}

type fakeSessionRepo struct {
	sessions []*repository.Session
}

func (r *fakeSessionRepo) Create(_ context.Context, session repository.Session) (string, error) {
	session.ID = fmt.Sprintf("session-%d", len(r.sessions)+1)
	session.CreatedAt = time.Now()
	r.sessions = append(r.sessions, &session)
	return session.ID, nil
}

func (r *fakeSessionRepo) GetActive(_ context.Context, userID string) (*repository.Session, error) {
	for i := len(r.sessions) - 1; i >= 0; i-- {
		if r.sessions[i].UserID == userID && r.sessions[i].Active {
			copied := *r.sessions[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) DeactivateAll(_ context.Context, userID string) error {
	for _, session := range r.sessions {
		if session.UserID == userID {
			session.Active = false
		}
	}
	return nil
}

func (r *fakeSessionRepo) UpdateContext(_ context.Context, id, newContext string) error {
	for _, session := range r.sessions {
		if session.ID == id {
			session.Context = newContext
		}
	}
	return nil
}

func (r *fakeSessionRepo) activeFor(userID string) []*repository.Session {
	var active []*repository.Session
	for _, session := range r.sessions {
		if session.UserID == userID && session.Active {
			active = append(active, session)
		}
	}
	return active
}

type fakeChatRepo struct {
	turns []repository.ChatTurn // append order is chronological
}

func (r *fakeChatRepo) Create(_ context.Context, turn repository.ChatTurn) (string, error) {
	turn.ID = fmt.Sprintf("turn-%d", len(r.turns)+1)
	turn.CreatedAt = time.Now()
	r.turns = append(r.turns, turn)
	return turn.ID, nil
}

func (r *fakeChatRepo) RecentBySession(_ context.Context, sessionID string, limit int) ([]repository.ChatTurn, error) {
	var matched []repository.ChatTurn
	for _, turn := range r.turns {
		if turn.SessionID == sessionID {
			matched = append(matched, turn)
		}
	}
	return tail(matched, limit), nil
}

func (r *fakeChatRepo) RecentByUser(_ context.Context, userID string, limit int) ([]repository.ChatTurn, error) {
	var matched []repository.ChatTurn
	for _, turn := range r.turns {
		if turn.UserID == userID {
			matched = append(matched, turn)
		}
	}
	return tail(matched, limit), nil
}

func tail(turns []repository.ChatTurn, limit int) []repository.ChatTurn {
	if len(turns) > limit {
		return turns[len(turns)-limit:]
	}
	return turns
}

type sentMessage struct {
	chatID string
	text   string
}

type fakeSender struct {
	sent    []sentMessage
	sendErr error
}

func (s *fakeSender) Send(_ context.Context, chatID, text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (s *fakeSender) lastText() string {
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1].text
}

type fakeProvider struct {
	response string
	err      error
	requests []providers.CompletionRequest
}

func (p *fakeProvider) Name() string {
	return "fake"
}

func (p *fakeProvider) Complete(_ context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &providers.CompletionResponse{Model: req.Model, Content: p.response}, nil
}

func (p *fakeProvider) lastPrompt() string {
	if len(p.requests) == 0 {
		return ""
	}
	req := p.requests[len(p.requests)-1]
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}

func testConfig() *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{Model: "test-model", MaxTokens: 600},
		Quota:    config.QuotaConfig{MonthlyCeiling: 400},
		History:  config.HistoryConfig{SessionWindow: 10, RecentWindow: 100, FullWindow: 1000},
		Prompt: config.PromptConfig{
			ContextHeader:        "History:",
			NoContextMarker:      "none",
			UserLabel:            "User",
			AssistantLabel:       "Assistant",
			UserMessageHeader:    "User message:",
			ResponseInstruction:  "Answer briefly.",
			SummarizeInstruction: "Summarize the following:",
			EmptyHistoryMarker:   "nothing to summarize",
		},
		Replies: config.ReplyConfig{
			Welcome:            "welcome",
			Help:               "help text",
			Promo:              "promo text",
			NewChat:            "new chat started",
			SummaryCreated:     "summary created!\n%s\nsend a message to continue",
			QuotaExceeded:      "quota exceeded",
			RegistrationFailed: "registration failed",
			InferenceFailed:    "inference apology",
			SomethingWentWrong: "something went wrong",
		},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// conversationFixture wires a ConversationService over the fakes.
type conversationFixture struct {
	svc      *ConversationService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	chats    *fakeChatRepo
	sender   *fakeSender
	provider *fakeProvider
	quota    *QuotaService
}

func newConversationFixture() *conversationFixture {
	cfg := testConfig()
	users := newFakeUserRepo()
	sessions := &fakeSessionRepo{}
	chats := &fakeChatRepo{}
	sender := &fakeSender{}
	provider := &fakeProvider{response: "model answer"}

	quota := NewQuotaService(users, cfg.Quota.MonthlyCeiling)
	sessionSvc := NewSessionService(sessions)
	historySvc := NewHistoryService(chats)
	summarySvc := NewSummaryService(provider, cfg.Provider, cfg.Prompt)

	svc := NewConversationService(cfg, quota, sessionSvc, historySvc, summarySvc, provider, sender, testLogger())

	return &conversationFixture{
		svc:      svc,
		users:    users,
		sessions: sessions,
		chats:    chats,
		sender:   sender,
		provider: provider,
		quota:    quota,
	}
}
