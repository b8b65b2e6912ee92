package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ai-travel-planner/internal/app"
	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/metrics"
	"ai-travel-planner/internal/pipeline"
	"ai-travel-planner/internal/trip"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// ContextBloatTokens is the prompt size that triggers an admin alert.
	ContextBloatTokens = 4000
	// maxMessageLen is Telegram's limit for one text message.
	maxMessageLen = 4096
	planTimeout   = 5 * time.Minute
)

const usageText = `✈️ *Travel Planner*

Send a trip as:
` + "`Origin -> Destination CHECK_IN CHECK_OUT TRAVELERS BUDGET`" + `

Example:
` + "`Seattle -> New York 2026-01-10 2026-01-15 2 2000`" + `

/retry plans your last trip again.`

// TripPlanner runs planning sessions.
type TripPlanner interface {
	PlanTrip(ctx context.Context, req trip.Request, opts app.PlanOptions) (*pipeline.PlanBundle, error)
}

// StatsSource reports recent usage for /metrics.
type StatsSource interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
	GetSessionStats(days int) (metrics.SessionStats, error)
}

// Sessions remembers each user's last request.
type Sessions interface {
	Save(ctx context.Context, userID string, req trip.Request, sessionID string, now time.Time) error
	GetActive(ctx context.Context, userID string, now time.Time) (*ChatSession, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot wraps the Telegram API and the trip planner.
type Bot struct {
	api      *tgbotapi.BotAPI
	out      sender
	planner  TripPlanner
	stats    StatsSource
	sessions Sessions
	cfg      *config.Config
	now      func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, planner TripPlanner, stats StatsSource, sessions Sessions) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	b := newBot(api, cfg, planner, stats, sessions)
	b.api = api
	return b, nil
}

func newBot(out sender, cfg *config.Config, planner TripPlanner, stats StatsSource, sessions Sessions) *Bot {
	return &Bot{
		out:      out,
		planner:  planner,
		stats:    stats,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !b.cfg.IsTelegramUserAllowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "/start" || text == "/help":
		b.sendMarkdown(msg.Chat.ID, usageText)
	case text == "/metrics":
		b.handleMetricsRequest(msg)
	case text == "/retry":
		b.handleRetry(msg)
	default:
		req, err := ParseTripMessage(text)
		if err != nil {
			b.sendPlain(msg.Chat.ID, "❌ "+err.Error()+"\n\nSend /help for the message format.")
			return
		}
		b.planAndReply(msg.From.ID, msg.Chat.ID, req)
	}
}

func (b *Bot) handleRetry(msg *tgbotapi.Message) {
	ctx := context.Background()
	s, err := b.sessions.GetActive(ctx, userKey(msg.From.ID), b.now())
	if err != nil {
		log.Printf("Error loading chat session for %d: %v", msg.From.ID, err)
	}
	if s == nil {
		b.sendPlain(msg.Chat.ID, "Nothing to retry. Send a trip first.")
		return
	}
	b.planAndReply(msg.From.ID, msg.Chat.ID, s.LastRequest)
}

func (b *Bot) planAndReply(userID, chatID int64, req trip.Request) {
	status := fmt.Sprintf("🧭 *Planning %s → %s...*\n(Searching flights, hotels and attractions)", req.OriginCity, req.DestinationCity)
	b.sendMarkdown(chatID, status)

	ctx, cancel := context.WithTimeout(context.Background(), planTimeout)
	defer cancel()

	log.Printf("Generating plan for user %d: %s -> %s", userID, req.OriginCity, req.DestinationCity)
	bundle, err := b.planner.PlanTrip(ctx, req, app.PlanOptions{Verbose: true})
	if err != nil {
		log.Printf("Error generating plan: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		b.sendMarkdown(chatID, fmt.Sprintf("❌ *Error generating plan:*\n```\n%v\n```", safeErr))
		return
	}

	if err := b.sessions.Save(ctx, userKey(userID), req, bundle.SessionID, b.now()); err != nil {
		log.Printf("Warning: failed to save chat session for user %d: %v", userID, err)
	}

	for _, m := range bundle.AgentMetas {
		if m.Usage.PromptTokens > ContextBloatTokens {
			b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
				m.AgentName, m.Usage.Model, m.Usage.PromptTokens))
		}
	}

	for _, part := range SplitMessage(FormatPlan(bundle), maxMessageLen) {
		b.sendPlain(chatID, part)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.sendMarkdown(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.stats.GetDailyUsage(7)
	if err != nil {
		b.sendPlain(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	sessions, err := b.stats.GetSessionStats(7)
	if err != nil {
		b.sendPlain(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}

	b.sendMarkdown(msg.Chat.ID, FormatMetrics(usage, sessions, metrics.GetSysHealth(b.cfg.DatabasePath)))
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.sendMarkdown(b.cfg.AdminTelegramID, text)
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}

// Plan text comes from the models, so it is sent without a parse mode.
func (b *Bot) sendPlain(chatID int64, text string) {
	if _, err := b.out.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

var tripMessage = regexp.MustCompile(`^(.+?)\s*(?:->|→)\s*(.+?)\s+(\d{4}-\d{2}-\d{2})\s+(\d{4}-\d{2}-\d{2})\s+(\d+)\s+(\$?[\d,]+(?:\.\d+)?)$`)

// ParseTripMessage reads "Origin -> Destination CHECK_IN CHECK_OUT TRAVELERS
// BUDGET" into a validated request.
func ParseTripMessage(text string) (trip.Request, error) {
	m := tripMessage.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return trip.Request{}, fmt.Errorf("could not read trip, expected: Origin -> Destination 2026-01-10 2026-01-15 2 2000")
	}

	travelers, err := strconv.Atoi(m[5])
	if err != nil {
		return trip.Request{}, fmt.Errorf("invalid number of travelers %q", m[5])
	}
	budget, ok := trip.ParseAmount(m[6])
	if !ok {
		return trip.Request{}, fmt.Errorf("invalid budget %q", m[6])
	}

	return trip.NewRequest(m[1], m[2], m[3], m[4], travelers, budget)
}

// FormatPlan renders a bundle as a chat message.
func FormatPlan(b *pipeline.PlanBundle) string {
	var sb strings.Builder
	req := b.Request
	fmt.Fprintf(&sb, "✈️ %s → %s\n", req.OriginCity, req.DestinationCity)
	fmt.Fprintf(&sb, "%s to %s, %d nights, %d traveler(s), budget $%.2f\n",
		req.CheckIn, req.CheckOut, req.Nights(), req.Travelers, req.Budget)
	app.PrintBundle(&sb, b, false)
	return sb.String()
}

// FormatMetrics renders the admin usage and health report.
func FormatMetrics(usage []metrics.DailyUsage, sessions metrics.SessionStats, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧳 *Plans*\n")
	sb.WriteString(fmt.Sprintf("• Sessions: %d (%d passed, %.0f%%)\n", sessions.Total, sessions.Passed, sessions.PassRate()*100))
	if sessions.Total > 0 {
		sb.WriteString(fmt.Sprintf("• Avg iterations: %.2f\n", sessions.AvgIterations))
	}
	for rule, n := range sessions.TopFailures {
		sb.WriteString(fmt.Sprintf("• Failed %s: %d\n", strings.ReplaceAll(rule, "_", " "), n))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Database: %s\n", health.DatabaseSize))
	return sb.String()
}

// SplitMessage cuts text into chunks of at most limit bytes, preferring line
// breaks.
func SplitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func isRuneStart(c byte) bool {
	return c&0xC0 != 0x80
}
