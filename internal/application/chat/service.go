// Package chat binds the gateway's fragment streams to a display sink and
// records completed exchanges in the history log.
package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// Gateway is the slice of the model gateway the binder consumes.
type Gateway interface {
	ActiveModel() string
	Complete(ctx context.Context, req domain.CompletionRequest) (ports.FragmentStream, error)
}

// Recorder persists completed exchanges.
type Recorder interface {
	Add(entry domain.HistoryEntry) error
}

// Service relays one completion at a time from the gateway into a sink.
// Each fragment is forwarded as it arrives; the full response is
// accumulated alongside and persisted only when the stream ends cleanly.
type Service struct {
	Gateway Gateway
	History Recorder
	Logger  ports.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Submit streams a completion of prompt on the currently active model.
// The model id is captured at submission time, so a concurrent selection
// change cannot affect this request.
func (s *Service) Submit(ctx context.Context, prompt string, sink ports.FragmentSink) (domain.HistoryEntry, error) {
	return s.SubmitModel(ctx, prompt, s.Gateway.ActiveModel(), sink)
}

// SubmitModel streams a completion of prompt on the named model, relaying
// fragments to sink. On clean end of stream the exchange is recorded with
// the request start time (unix ms) as its key. Erroring or abandoned
// requests persist nothing; whatever partial text reached the sink stays in
// the transient view only.
func (s *Service) SubmitModel(ctx context.Context, prompt string, modelID string, sink ports.FragmentSink) (domain.HistoryEntry, error) {
	if s.Gateway == nil || s.History == nil || s.Logger == nil {
		return domain.HistoryEntry{}, errors.New("chat.Service dependencies not satisfied")
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	stream, err := s.Gateway.Complete(ctx, domain.CompletionRequest{Prompt: prompt, ModelID: modelID})
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	defer stream.Close()

	var response strings.Builder
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.Logger.Warn("stream aborted", map[string]interface{}{
				"model":         modelID,
				"partial_chars": response.Len(),
				"error":         err.Error(),
			})
			return domain.HistoryEntry{}, err
		}
		response.WriteString(fragment)
		sink.WriteFragment(fragment)
	}
	sink.Done()

	entry := domain.HistoryEntry{
		Timestamp:       start.UnixMilli(),
		ModelID:         modelID,
		Prompt:          prompt,
		Response:        response.String(),
		DurationSeconds: now().Sub(start).Seconds(),
	}
	if err := s.History.Add(entry); err != nil {
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}
