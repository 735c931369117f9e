package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tr8energy/energy-bot/internal/config"
	"github.com/tr8energy/energy-bot/internal/storage"
	"github.com/tr8energy/energy-bot/internal/trongrid"
	"github.com/tr8energy/energy-bot/internal/tronsave"
)

var tronAddrRegex = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{25,33}$`)

// Thresholds for the provide-energy eligibility check.
var (
	providerMinEnergy = int64(100_000)
	providerMinTRX    = decimal.NewFromInt(100)
)

// Bot wraps the telegram bot with handlers
type Bot struct {
	bot     *bot.Bot
	cfg     *config.Config
	storage *storage.Storage
	chain   *trongrid.Client
	market  *tronsave.Client
	states  *StateManager
	log     *slog.Logger
}

// New creates a new telegram bot
func New(cfg *config.Config, store *storage.Storage, chain *trongrid.Client, market *tronsave.Client, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		cfg:     cfg,
		storage: store,
		chain:   chain,
		market:  market,
		states:  NewStateManager(),
		log:     log,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot

	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start ", bot.MatchTypePrefix, b.startHandler)

	return b, nil
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// Notify sends a notification message to a user. Used by the payment
// watcher for expiry and delegation outcomes.
func (b *Bot) Notify(ctx context.Context, userID int64, text string) error {
	_, err := b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	})
	return err
}

// --- Handlers ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	from := update.Message.From
	b.states.Clear(from.ID)

	if err := b.storage.UpsertUser(from.ID, from.FirstName, from.Username); err != nil {
		b.log.Error("upsert user", "user_id", from.ID, "error", err)
	}

	b.sendMessage(ctx, update.Message.Chat.ID,
		"Welcome to the TRON Energy bot! Choose an option below:",
		MainKeyboard(),
	)
}

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	userID := update.Message.From.ID
	text := strings.TrimSpace(update.Message.Text)

	state := b.states.Get(userID)
	if state == nil {
		return
	}

	switch state.State {
	case StateWaitBuyAddress:
		b.handleBuyAddress(ctx, update.Message, text)
	case StateWaitProviderAddress:
		b.handleProviderAddress(ctx, update.Message, text)
	}
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	data := cb.Data

	// Answer callback to remove loading state
	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	switch {
	case data == "back":
		b.showMainMenu(ctx, cb)
	case data == "buy":
		b.handleBuy(ctx, cb)
	case data == "wallet_connect":
		b.handleWalletConnect(ctx, cb)
	case data == "enter_address":
		b.handleEnterAddress(ctx, cb)
	case strings.HasPrefix(data, "pkg:"):
		b.handlePackageSelection(ctx, cb, data)
	case data == "faq":
		b.showFAQ(ctx, cb)
	case data == "tools":
		b.showTools(ctx, cb)
	case data == "provide":
		b.handleProvide(ctx, cb)
	default:
		b.log.Warn("unknown callback", "data", data, "user_id", cb.From.ID)
	}
}

func (b *Bot) showMainMenu(ctx context.Context, cb *models.CallbackQuery) {
	b.states.Clear(cb.From.ID)
	b.editMessage(ctx, cb.Message,
		"Welcome to the TRON Energy bot! Choose an option below:",
		MainKeyboard(),
	)
}

func (b *Bot) handleBuy(ctx context.Context, cb *models.CallbackQuery) {
	b.states.Clear(cb.From.ID)
	b.editMessage(ctx, cb.Message,
		"Choose how you want to provide your TRON wallet address:",
		BuyStartKeyboard(),
	)
}

func (b *Bot) handleWalletConnect(ctx context.Context, cb *models.CallbackQuery) {
	b.states.Set(cb.From.ID, StateWaitBuyAddress, nil)
	b.editMessage(ctx, cb.Message,
		"🔗 WalletConnect integration is not implemented yet.\n"+
			"Please paste your TRON wallet address manually (e.g. starting with T...).",
		BackKeyboard(),
	)
}

func (b *Bot) handleEnterAddress(ctx context.Context, cb *models.CallbackQuery) {
	b.states.Set(cb.From.ID, StateWaitBuyAddress, nil)
	b.editMessage(ctx, cb.Message,
		"Please enter the TRON wallet address (e.g. T...) for which you want to buy energy.",
		BackKeyboard(),
	)
}

func (b *Bot) handleBuyAddress(ctx context.Context, msg *models.Message, address string) {
	userID := msg.From.ID

	if !tronAddrRegex.MatchString(address) {
		b.sendMessage(ctx, msg.Chat.ID,
			"⚠️ That doesn't look like a valid TRON address. Please try again (must start with T).",
			nil,
		)
		return
	}

	b.states.Set(userID, StateAddressReady, map[string]interface{}{
		"wallet_address": address,
	})

	balances, err := b.chain.GetAccountBalances(ctx, address)
	if err != nil {
		b.log.Error("fetch balances", "address", address, "error", err)
		b.sendMessage(ctx, msg.Chat.ID,
			"⚠️ Could not fetch wallet status right now, continuing anyway.", nil)
	} else {
		b.sendMessage(ctx, msg.Chat.ID, formatWalletInfo(address, balances), nil)
	}

	packages := b.market.GetPackages(ctx, address)

	labels := make([]PackageLabel, 0, len(packages))
	for _, pkg := range packages {
		labels = append(labels, PackageLabel{
			ID:    pkg.ID,
			Label: formatPackageLabel(pkg, b.cfg.CommissionPercent),
		})
	}

	b.sendMessage(ctx, msg.Chat.ID, "🔋 Available Energy Packages", PackagesKeyboard(labels))
}

func (b *Bot) handlePackageSelection(ctx context.Context, cb *models.CallbackQuery, data string) {
	userID := cb.From.ID

	state := b.states.Get(userID)
	var wallet string
	if state != nil {
		wallet, _ = state.Data["wallet_address"].(string)
	}
	if wallet == "" {
		b.editMessage(ctx, cb.Message, "Please provide a wallet address first.", MainKeyboard())
		return
	}

	packageID, err := strconv.Atoi(strings.TrimPrefix(data, "pkg:"))
	if err != nil {
		return
	}

	// Packages are ephemeral, so reprice the ladder for this selection.
	var selected *tronsave.EnergyPackage
	for _, pkg := range b.market.GetPackages(ctx, wallet) {
		if pkg.ID == packageID {
			selected = &pkg
			break
		}
	}
	if selected == nil {
		b.editMessage(ctx, cb.Message, "Selected package not found. Please try again.", MainKeyboard())
		return
	}

	finalPrice := FinalPrice(selected.BasePriceTRX, b.cfg.CommissionPercent)
	paymentRef := uuid.NewString()

	invoice, err := b.storage.CreateInvoice(
		userID, wallet, selected.EnergyAmount,
		selected.BasePriceTRX, finalPrice,
		paymentRef, b.cfg.InvoiceValidity,
	)
	if err != nil {
		b.log.Error("create invoice", "user_id", userID, "error", err)
		b.editMessage(ctx, cb.Message, "❌ Failed to create the invoice. Please try again.", MainKeyboard())
		return
	}

	b.log.Info("invoice created",
		"invoice_id", invoice.ID,
		"user_id", userID,
		"energy", invoice.EnergyAmount,
		"final_price_trx", invoice.FinalPriceTRX.String(),
	)

	text := fmt.Sprintf(
		"🧾 INVOICE #%d\n\n"+
			"⚡ Energy: %s\n"+
			"💵 Amount: %s TRX\n"+
			"⏳ Valid until: %s\n"+
			"🏦 Pay to (TRX address):\n%s\n\n"+
			"Payment reference: %s\n"+
			"We will automatically check for payment.",
		invoice.ID,
		formatEnergy(invoice.EnergyAmount),
		invoice.FinalPriceTRX.StringFixed(2),
		invoice.ExpiresAt.Format("2006-01-02 15:04:05 MST"),
		b.cfg.ReceivingAddress,
		invoice.PaymentRef,
	)

	if cb.Message.Message != nil {
		b.sendMessage(ctx, cb.Message.Message.Chat.ID, text, nil)
	}
}

func (b *Bot) showFAQ(ctx context.Context, cb *models.CallbackQuery) {
	text := "❓ FAQ\n\n" +
		"• What is energy on Tron?\n" +
		"  Energy pays for smart contract execution so you avoid large TRX fees.\n\n" +
		"• What is bandwidth?\n" +
		"  Bandwidth covers simple transactions like transfers. Most dApps need energy.\n\n" +
		"• Why rent energy instead of paying TRX gas?\n" +
		"  Renting is often cheaper than burning TRX per transaction.\n\n" +
		"• How does this bot work?\n" +
		"  We delegate energy to your wallet — no need to move your funds.\n\n" +
		"• When do I need to pay?\n" +
		"  Pay the invoice before it expires so we can delegate energy automatically."

	b.editMessage(ctx, cb.Message, text, BackKeyboard())
}

func (b *Bot) showTools(ctx context.Context, cb *models.CallbackQuery) {
	text := "⭐ Our Tools\n" +
		"https://tr8.energy\n" +
		"https://usdtbulksender.com\n" +
		"https://trxfree.us"

	b.editMessage(ctx, cb.Message, text, BackKeyboard())
}

func (b *Bot) handleProvide(ctx context.Context, cb *models.CallbackQuery) {
	b.states.Set(cb.From.ID, StateWaitProviderAddress, nil)
	b.editMessage(ctx, cb.Message,
		"Enter your TRON wallet address so we can check if you can provide energy.",
		BackKeyboard(),
	)
}

func (b *Bot) handleProviderAddress(ctx context.Context, msg *models.Message, address string) {
	userID := msg.From.ID

	if !tronAddrRegex.MatchString(address) {
		b.sendMessage(ctx, msg.Chat.ID, "Please send a valid TRON address starting with T.", nil)
		return
	}

	b.states.Clear(userID)

	balances, err := b.chain.GetAccountBalances(ctx, address)
	if err != nil {
		b.log.Error("fetch provider balances", "address", address, "error", err)
		b.sendMessage(ctx, msg.Chat.ID,
			"⚠️ Could not check the wallet right now. Please try again later.", MainKeyboard())
		return
	}

	var text string
	if balances.Energy >= providerMinEnergy || balances.TRX.GreaterThanOrEqual(providerMinTRX) {
		text = "✅ Your wallet looks ready to provide energy!\n" +
			"Visit https://tr8.energy to provide energy and earn up to 23.7% APY."
	} else {
		text = "You need more staked energy or TRX to start providing.\n" +
			"Read https://trxfree.us/blog to learn how to stake and earn from energy provisioning."
	}

	b.sendMessage(ctx, msg.Chat.ID, text, MainKeyboard())
}

// --- Helpers ---

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}
