package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultExpoURL = "https://exp.host/--/api/v2/push/send"

// ErrDeviceNotRegistered means the token is dead and should be forgotten.
var ErrDeviceNotRegistered = errors.New("push: device not registered")

type Message struct {
	To    string
	Title string
	Body  string
	Data  map[string]string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
	ProviderID() string
}

// ExpoSender posts to the Expo push API. Requests are paced by a shared
// token bucket so bursts from a scan tick stay under the provider limit.
type ExpoSender struct {
	url     string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

func NewExpoSender(url string, accessToken string, perSecond int) *ExpoSender {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultExpoURL
	}
	if perSecond <= 0 {
		perSecond = 100
	}
	return &ExpoSender{
		url:     url,
		token:   strings.TrimSpace(accessToken),
		http:    &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

func (s *ExpoSender) ProviderID() string {
	return "expo"
}

type expoMessage struct {
	To        string            `json:"to"`
	Sound     string            `json:"sound"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Priority  string            `json:"priority"`
	ChannelID string            `json:"channelId"`
	Data      map[string]string `json:"data,omitempty"`
}

type expoTicket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type expoResponse struct {
	Data expoTicket `json:"data"`
}

func (s *ExpoSender) Send(ctx context.Context, msg Message) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(expoMessage{
		To:        msg.To,
		Sound:     "default",
		Title:     msg.Title,
		Body:      msg.Body,
		Priority:  "high",
		ChannelID: "default",
		Data:      msg.Data,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("expo push returned %d", resp.StatusCode)
	}

	var out expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode expo response: %w", err)
	}
	if out.Data.Status == "error" {
		if out.Data.Details.Error == "DeviceNotRegistered" {
			return ErrDeviceNotRegistered
		}
		return fmt.Errorf("expo push rejected: %s", out.Data.Message)
	}
	return nil
}

type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "push-noop"
}

func (s *NoopSender) Send(context.Context, Message) error {
	return nil
}
