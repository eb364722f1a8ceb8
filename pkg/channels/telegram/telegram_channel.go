package telegram

import (
	"adbtool/pkg/api"
	"adbtool/pkg/utils"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig encapsulates the credentials required to authenticate with
// the Telegram Bot API and the users allowed to drive the device.
type TelegramConfig struct {
	Token        string  `json:"token"`         // The secret BOT API string provided by @BotFather
	AllowedUsers []int64 `json:"allowed_users"` // Empty means everyone may send commands
	APIEndpoint  string  `json:"api_endpoint"`  // Overrides tgbotapi.APIEndpoint (self-hosted bot API)
}

// TelegramChannel is the implementation of api.Channel for the Telegram
// platform. Commands arrive as plain messages; screenshots are sent back as
// photos.
type TelegramChannel struct {
	config       TelegramConfig     // Auth credentials
	bot          *tgbotapi.BotAPI   // Underlying Telegram SDK client
	messageLimit int                // Maximum character count per single message bubble
	stopCtx      context.Context    // Context used to forcibly abort the long-polling HTTP request
	stopCancel   context.CancelFunc // Function to trigger the abort
}

func NewTelegramChannel(cfg TelegramConfig, msgLimit int) (*TelegramChannel, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Create a dedicated HTTP client for the bot so we can forcefully close it on shutdown.
	// By tying the DialContext to our stopCtx, active long-polling requests will be
	// aborted when Stop() is called.
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	botHttpClient := &http.Client{
		Timeout: 90 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(dialCtx context.Context, network, addr string) (net.Conn, error) {
				mergedCtx, mergedCancel := context.WithCancel(dialCtx)
				go func() {
					select {
					case <-ctx.Done():
						mergedCancel()
					case <-mergedCtx.Done():
					}
				}()
				return dialer.DialContext(mergedCtx, network, addr)
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, botHttpClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	if msgLimit <= 0 {
		msgLimit = 4000
	}
	return &TelegramChannel{
		config:       cfg,
		bot:          bot,
		messageLimit: msgLimit,
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

// ID returns the unique platform identifier "telegram".
func (t *TelegramChannel) ID() string {
	return "telegram"
}

// Start initiates the long-polling update loop in a background goroutine.
func (t *TelegramChannel) Start(ctx api.ChannelContext) error {
	go t.poll(ctx)
	return nil
}

func (t *TelegramChannel) poll(ctx api.ChannelContext) {
	offset := 0
	for {
		select {
		case <-t.stopCtx.Done():
			return // Gracefully exit on shutdown
		default:
		}

		// GetUpdates instead of GetUpdatesChan so the offset and shutdown stay under our control
		reqConfig := tgbotapi.NewUpdate(offset)
		reqConfig.Timeout = 60

		updates, err := t.bot.GetUpdates(reqConfig)
		if err != nil {
			select {
			case <-t.stopCtx.Done():
				return // Ignore error if we are shutting down
			default:
				slog.Debug("Failed to get telegram updates", "error", err)
				time.Sleep(3 * time.Second)
				continue
			}
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
				t.handleUpdate(ctx, update)
			}
		}
	}
}

// handleUpdate turns one text message from an allowed user into a command.
func (t *TelegramChannel) handleUpdate(ctx api.ChannelContext, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}
	if !t.allowed(msg.From.ID) {
		slog.Warn("Telegram user not allowed", "user_id", msg.From.ID, "username", msg.From.UserName)
		return
	}

	session := api.SessionContext{
		ChannelID: t.ID(),
		UserID:    strconv.FormatInt(msg.From.ID, 10),
		ChatID:    strconv.FormatInt(msg.Chat.ID, 10),
		Username:  msg.From.UserName,
	}
	ctx.OnMessage(t.ID(), &api.UnifiedMessage{
		Session: session,
		Content: msg.Text,
		Raw:     msg,
	})
}

func (t *TelegramChannel) allowed(userID int64) bool {
	return len(t.config.AllowedUsers) == 0 || slices.Contains(t.config.AllowedUsers, userID)
}

func (t *TelegramChannel) Stop() error {
	t.stopCancel() // Cancel our custom long-polling loop immediately

	// Forcefully close lingering HTTP connections
	if httpClient, ok := t.bot.Client.(*http.Client); ok && httpClient != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}

	return nil
}

func (t *TelegramChannel) Send(session api.SessionContext, message string) error {
	// Telegram Chat ID must be int64
	chatID, err := strconv.ParseInt(session.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id for telegram: %s", session.ChatID)
	}

	for i, chunk := range chunkMessage(message, t.messageLimit) {
		if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return fmt.Errorf("telegram send chunk %d failed: %w", i, err)
		}
	}
	return nil
}

// SendImage uploads the screenshot at path as a photo.
func (t *TelegramChannel) SendImage(session api.SessionContext, path string) error {
	chatID, err := strconv.ParseInt(session.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id for telegram: %s", session.ChatID)
	}

	// Telegram picks the upload type from the file name, so extensionless
	// output paths are uploaded under a sniffed name.
	mimeType, ext := utils.DetectFileMimeAndExt(path)
	var file tgbotapi.RequestFileData = tgbotapi.FilePath(path)
	if filepath.Ext(path) == "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("telegram send photo failed: %w", err)
		}
		defer f.Close()
		file = tgbotapi.FileReader{Name: "screenshot" + ext, Reader: f}
	}

	var msg tgbotapi.Chattable = tgbotapi.NewPhoto(chatID, file)
	if !strings.HasPrefix(mimeType, "image/") {
		msg = tgbotapi.NewDocument(chatID, file)
	}
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send photo failed: %w", err)
	}
	return nil
}

// chunkMessage splits message into pieces of at most limit characters.
func chunkMessage(message string, limit int) []string {
	runes := []rune(message)
	if len(runes) <= limit {
		return []string{message}
	}
	var chunks []string
	for i := 0; i < len(runes); i += limit {
		end := min(i+limit, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

var _ api.ImageChannel = (*TelegramChannel)(nil)
