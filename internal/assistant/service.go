package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/llm"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/metrics"
	"loanmvp/internal/shared/telemetry"
	"loanmvp/internal/subscriptions"
)

// Entitlements answers plan feature checks.
type Entitlements interface {
	Allows(ctx context.Context, borrowerID, feature string) (bool, error)
}

// Service runs role-aware chat with short conversation memory.
type Service struct {
	LLM          llm.Client
	Memory       Memory
	History      HistoryRepo
	Borrowers    borrowers.Repo
	Entitlements Entitlements
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.LLM == nil || s.Memory == nil {
		return errors.New("assistant service not configured")
	}
	return nil
}

// Chat answers message in the requested context and records the exchange.
func (s *Service) Chat(ctx context.Context, caller Caller, req ChatRequest) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	role := NormalizeContext(req.Role)

	if err := s.checkEntitled(ctx, caller); err != nil {
		metrics.IncAIChat(role, "denied")
		return "", err
	}

	key := MemoryKey(caller.UserID, role)
	turns, err := s.Memory.Load(ctx, key)
	if err != nil {
		telemetry.Warn("assistant.memory_load_failed", map[string]any{"error": err.Error()})
		turns = nil
	}
	userTurn := Turn{Role: TurnUser, Content: message}
	turns = lastTurns(append(turns, userTurn), MemoryWindow)

	prompt := BuildPrompt(SystemPrompt(role), turns)
	reply, err := s.LLM.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		metrics.IncAIChat(role, "error")
		telemetry.Error("assistant.generate_failed", map[string]any{
			"role":  role,
			"error": err.Error(),
		})
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	reply = strings.TrimSpace(reply)

	if err := s.Memory.Append(ctx, key, userTurn, Turn{Role: TurnAssistant, Content: reply}); err != nil {
		telemetry.Warn("assistant.memory_save_failed", map[string]any{"error": err.Error()})
	}
	if s.History != nil {
		entry := ChatHistory{
			ID:          uuid.NewString(),
			UserID:      caller.UserID,
			Role:        role,
			UserMessage: message,
			AIResponse:  reply,
			CreatedAt:   s.now(),
		}
		if err := s.History.Create(ctx, entry); err != nil {
			telemetry.Warn("assistant.history_save_failed", map[string]any{"error": err.Error()})
		}
	}
	metrics.IncAIChat(role, "ok")
	return reply, nil
}

// RecentHistory returns the caller's latest exchanges, newest first.
func (s *Service) RecentHistory(ctx context.Context, userID, role string) ([]ChatHistory, error) {
	if s == nil || s.History == nil {
		return []ChatHistory{}, nil
	}
	if strings.TrimSpace(role) != "" {
		role = NormalizeContext(role)
	}
	out, err := s.History.ListRecent(ctx, userID, role, historyLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ChatHistory{}
	}
	return out, nil
}

// checkEntitled gates signed-in borrowers whose stored plan lacks the assistant.
func (s *Service) checkEntitled(ctx context.Context, caller Caller) error {
	if caller.Guest || caller.Role != auth.RoleBorrower || s.Borrowers == nil || s.Entitlements == nil {
		return nil
	}
	profile, err := s.Borrowers.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, borrowers.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	ok, err := s.Entitlements.Allows(ctx, profile.ID, subscriptions.FeatureAIAssistant)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEntitled
	}
	return nil
}
