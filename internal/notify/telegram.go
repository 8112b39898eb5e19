package notify

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/chainpool/internal/rpcpool"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TELEGRAM ALERTER - Ops notifications & pool status commands
// ═══════════════════════════════════════════════════════════════════════════════
//
// Pushes endpoint-down / recovered / circuit-reset alerts to the ops chat and
// answers /status, /chains and /ping. Trading commands live in the bot layer,
// not here.
//
// ═══════════════════════════════════════════════════════════════════════════════

// StatusProvider exposes read-only pool snapshots. Implemented by
// rpcpool.Manager.
type StatusProvider interface {
	Status() rpcpool.Status
	ChainStats(chain string) (rpcpool.ChainStatus, error)
}

// Notifier manages the Telegram ops interface.
type Notifier struct {
	mu      sync.RWMutex
	api     *tgbotapi.BotAPI
	chatID  int64
	status  StatusProvider
	running bool
	stopCh  chan struct{}
}

// New creates a notifier bound to one authorized chat.
func New(token string, chatID int64, status StatusProvider) (*Notifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat ID is not set")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	n := &Notifier{
		api:    api,
		chatID: chatID,
		status: status,
		stopCh: make(chan struct{}),
	}

	log.Info().Str("username", api.Self.UserName).Msg("🤖 Telegram alerter initialized")
	return n, nil
}

// Start begins listening for ops commands.
func (n *Notifier) Start() {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return
	}
	n.running = true
	n.mu.Unlock()

	go n.commandLoop()
	log.Info().Msg("📱 Telegram alerter started")
}

// Stop stops the command loop.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.running {
		return
	}
	n.running = false
	close(n.stopCh)
	log.Info().Msg("Telegram alerter stopped")
}

// HandleEvent formats and pushes a pool event. Wired to
// rpcpool.Manager.SetEventHandler.
func (n *Notifier) HandleEvent(ev rpcpool.Event) {
	n.sendMarkdown(formatEvent(ev))
}

// ═══════════════════════════════════════════════════════════════════════════════
// COMMAND HANDLING
// ═══════════════════════════════════════════════════════════════════════════════

func (n *Notifier) commandLoop() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := n.api.GetUpdatesChan(u)

	for {
		select {
		case <-n.stopCh:
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			// Only respond to the authorized ops chat
			if update.Message.Chat.ID != n.chatID {
				continue
			}

			n.handleCommand(update.Message)
		}
	}
}

func (n *Notifier) handleCommand(msg *tgbotapi.Message) {
	switch strings.ToLower(msg.Command()) {
	case "start", "help":
		n.cmdHelp()
	case "status":
		n.cmdStatus()
	case "chains":
		n.cmdChains()
	case "ping":
		n.send("🏓 Pong!")
	default:
		n.send("❓ Unknown command. Use /help")
	}
}

func (n *Notifier) cmdHelp() {
	n.sendMarkdown(`🤖 *CHAINPOOL COMMANDS*
━━━━━━━━━━━━━━━━━━━━

📊 /status — Pool overview
⛓️ /chains — Per-chain endpoint detail
🏓 /ping — Test connection`)
}

func (n *Notifier) cmdStatus() {
	n.sendMarkdown(formatStatus(n.status.Status()))
}

func (n *Notifier) cmdChains() {
	st := n.status.Status()
	chains := make([]string, 0, len(st.Chains))
	for chain := range st.Chains {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	var b strings.Builder
	b.WriteString("⛓️ *ENDPOINTS*\n")
	for _, chain := range chains {
		cs := st.Chains[chain]
		b.WriteString(fmt.Sprintf("\n*%s*\n", strings.ToUpper(chain)))
		for _, ep := range cs.Endpoints {
			b.WriteString(fmt.Sprintf("%s `%s` p%d — %d reqs\n",
				healthEmoji(ep), ep.URL, ep.Priority, ep.RequestCount))
		}
	}
	n.sendMarkdown(b.String())
}

// ═══════════════════════════════════════════════════════════════════════════════
// FORMATTING
// ═══════════════════════════════════════════════════════════════════════════════

func formatEvent(ev rpcpool.Event) string {
	switch ev.Type {
	case rpcpool.EventEndpointDown:
		return fmt.Sprintf(`💔 *ENDPOINT DOWN*

⛓️ Chain: *%s*
🔗 `+"`%s`"+`
📝 %s`, ev.Chain, ev.URL, ev.Detail)
	case rpcpool.EventEndpointRecovered:
		return fmt.Sprintf(`✅ *ENDPOINT RECOVERED*

⛓️ Chain: *%s*
🔗 `+"`%s`", ev.Chain, ev.URL)
	case rpcpool.EventCircuitReset:
		return fmt.Sprintf(`🚨 *CIRCUIT BREAKER RESET*

⛓️ Chain: *%s*
All endpoints were failed — failure state cleared for one retry.`, ev.Chain)
	default:
		return fmt.Sprintf("📌 Pool event %s on %s", ev.Type, ev.Chain)
	}
}

func formatStatus(st rpcpool.Status) string {
	chains := make([]string, 0, len(st.Chains))
	for chain := range st.Chains {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	var b strings.Builder
	b.WriteString("📊 *POOL STATUS*\n━━━━━━━━━━━━━━━━━━━━\n")
	for _, chain := range chains {
		cs := st.Chains[chain]
		emoji := "🟢"
		if cs.Healthy == 0 {
			emoji = "🔴"
		} else if cs.Healthy < cs.Total {
			emoji = "🟡"
		}
		b.WriteString(fmt.Sprintf("%s *%s* — %d/%d healthy\n", emoji, strings.ToUpper(chain), cs.Healthy, cs.Total))
	}
	if len(st.FailedURLs) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ Failed endpoints: *%d*\n", len(st.FailedURLs)))
	}
	return b.String()
}

func healthEmoji(ep rpcpool.EndpointStatus) string {
	switch {
	case ep.Failed:
		return "⛔"
	case ep.Healthy:
		return "🟢"
	default:
		return "🔴"
	}
}

func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		log.Warn().Err(err).Msg("Failed to send Telegram message")
	}
}

func (n *Notifier) sendMarkdown(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		log.Warn().Err(err).Msg("Failed to send Telegram message")
	}
}
