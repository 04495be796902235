package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
)

const (
	embedColorGold = 0xF1C40F
	footerText     = "Data from Eve-Scout • eve-scout.com"
	footerIcon     = "https://www.eve-scout.com/favicon.ico"
)

type DiscordOptions struct {
	WebhookURL string
	Username   string

	// MentionRoleID pings a role. When empty, MentionEveryone decides
	// whether @everyone is pinged.
	MentionRoleID   string
	MentionEveryone bool

	Timeout time.Duration
}

// DiscordSink posts alerts to a Discord webhook as a rich embed.
type DiscordSink struct {
	opts   DiscordOptions
	client *http.Client
}

func NewDiscordSink(opts DiscordOptions) *DiscordSink {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &DiscordSink{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

type webhookPayload struct {
	Username        string           `json:"username,omitempty"`
	Content         string           `json:"content,omitempty"`
	Embeds          []embed          `json:"embeds"`
	AllowedMentions *allowedMentions `json:"allowed_mentions,omitempty"`
}

type allowedMentions struct {
	Parse []string `json:"parse"`
	Roles []string `json:"roles,omitempty"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Fields      []embedField `json:"fields"`
	Footer      embedFooter  `json:"footer"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

func (s *DiscordSink) Deliver(ctx context.Context, evt domain.AlertEvent) error {
	body, err := json.Marshal(s.payload(evt))
	if err != nil {
		return fmt.Errorf("%w: encode discord payload: %v", domain.ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http post: %v", domain.ErrDelivery, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: webhook returned HTTP %d", domain.ErrDelivery, resp.StatusCode)
	}
	return nil
}

func (s *DiscordSink) mention() (string, *allowedMentions) {
	switch {
	case s.opts.MentionRoleID != "":
		return "<@&" + s.opts.MentionRoleID + ">", &allowedMentions{Parse: []string{}, Roles: []string{s.opts.MentionRoleID}}
	case s.opts.MentionEveryone:
		return "@everyone", &allowedMentions{Parse: []string{"everyone"}}
	default:
		return "", &allowedMentions{Parse: []string{}}
	}
}

func (s *DiscordSink) payload(evt domain.AlertEvent) webhookPayload {
	conn := evt.Connection
	origin := evt.Origin.Name
	dest := evt.Destination.Name
	mention, allowed := s.mention()

	description := fmt.Sprintf(
		"A route from **%s** to **%s** is available via Thera!\n\n"+
			"**%dj** from %s to Thera entry\n"+
			"**%dj** from Thera exit to %s\n"+
			"**Total: %d jumps** (+ Thera transit)",
		origin, dest,
		evt.Route.JumpsOriginToExit, origin,
		evt.Route.JumpsExitToDestination, dest,
		evt.Route.Total,
	)

	region := conn.ExitRegion
	if region == "" {
		region = "Unknown"
	}

	wormhole := fmt.Sprintf(
		"%s **%s**\n"+
			"Region: %s\n"+
			"Sig: `%s` → `%s`\n"+
			"Size: %s **%s**\n"+
			"Type: %s | %s",
		conn.SecurityEmoji(), conn.ExitSystemName,
		region,
		conn.ExitSignature, conn.TheraSignature,
		conn.Size.Emoji(), conn.Size.Label(),
		conn.WormholeType, conn.LifetimeStatus(evt.EvaluatedAt),
	)

	return webhookPayload{
		Username:        s.opts.Username,
		Content:         mention,
		AllowedMentions: allowed,
		Embeds: []embed{{
			Title:       fmt.Sprintf("🌀 Thera Route: %s → %s", origin, dest),
			Description: description,
			Color:       embedColorGold,
			Timestamp:   evt.EvaluatedAt.UTC().Format(time.RFC3339),
			Fields: []embedField{{
				Name:  "🚪 Wormhole (" + conn.ExitSystemName + ")",
				Value: wormhole,
			}},
			Footer: embedFooter{Text: footerText, IconURL: footerIcon},
		}},
	}
}
