package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	bberrors "github.com/harunnryd/bookbot/internal/errors"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

type SlackAdapter struct {
	signingSecret string
	botToken      string
	eventHandler  EventHandler
	server        *http.Server
	port          int
	client        *slack.Client
}

func NewSlackAdapter(port int, signingSecret, botToken string, eventHandler EventHandler) *SlackAdapter {
	if signingSecret == "" {
		signingSecret = os.Getenv("SLACK_SIGNING_SECRET")
	}
	if botToken == "" {
		botToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	return &SlackAdapter{
		signingSecret: signingSecret,
		botToken:      botToken,
		eventHandler:  eventHandler,
		port:          port,
		client:        slack.New(botToken),
	}
}

func (s *SlackAdapter) Name() string {
	return "slack"
}

func (s *SlackAdapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/events", s.handleEvents)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		slog.Info("Slack Adapter listening", "port", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Slack server failed", "error", err)
		}
	}()

	<-ctx.Done()
	return s.server.Shutdown(context.Background())
}

func (s *SlackAdapter) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *SlackAdapter) Send(ctx context.Context, channelID string, content string) error {
	_, _, err := s.client.PostMessageContext(ctx, channelID, slack.MsgOptionText(content, false))
	if err != nil {
		return bberrors.WrapWithCategory(err, "failed to send Slack message", bberrors.ErrTransient)
	}
	slog.Debug("Slack message sent", "channel", channelID)
	return nil
}

func (s *SlackAdapter) Health(ctx context.Context) error {
	if s.server == nil {
		return bberrors.Transient("Slack server not started")
	}
	if s.client == nil {
		return bberrors.Transient("Slack client not initialized")
	}
	if _, err := s.client.AuthTestContext(ctx); err != nil {
		return bberrors.Transient("Slack connection failed")
	}
	return nil
}

func (s *SlackAdapter) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sv, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, err := sv.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := sv.Ensure(); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if eventsAPIEvent.Type == slackevents.URLVerification {
		var challenge *slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(challenge.Challenge))
		return
	}

	if eventsAPIEvent.Type == slackevents.CallbackEvent {
		switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
		case *slackevents.MessageEvent:
			// Bot echoes and edits are not customer messages.
			if ev.BotID != "" || ev.SubType != "" {
				break
			}

			metadata := map[string]string{
				metaMessageID: ev.Channel + ":" + ev.TimeStamp,
				metaUserID:    ev.User,
			}

			if s.eventHandler != nil {
				if err := s.eventHandler(r.Context(), s.Name(), ev.Channel, ev.Text, metadata); err != nil {
					slog.Error("Failed to handle Slack event", "error", err)
				}
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}
