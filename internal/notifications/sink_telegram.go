package notifications

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"ebooking/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNoChats = errors.New("no telegram chat registered, send /start to the bot")

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatRegistry holds the admin chats notifications go to. It is seeded from
// configuration and grows when someone sends /start.
type ChatRegistry struct {
	mu  sync.RWMutex
	ids []int64
}

func NewChatRegistry(ids ...int64) *ChatRegistry {
	r := &ChatRegistry{}
	for _, id := range ids {
		r.Add(id)
	}
	return r
}

// Add reports whether id was not registered yet.
func (r *ChatRegistry) Add(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.ids, id) {
		return false
	}
	r.ids = append(r.ids, id)
	return true
}

func (r *ChatRegistry) IDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.ids)
}

// maxPartialEvents bounds how many partially delivered events are remembered.
const maxPartialEvents = 1024

type sentKey struct {
	message int
	chat    int64
}

// TelegramSink sends rendered events to every registered chat. When some
// chats fail, the ones already reached are remembered per event id, and a
// redelivery of the same event only goes to the rest.
type TelegramSink struct {
	sender TelegramSender
	chats  *ChatRegistry
	log    *logger.Logger

	mu      sync.Mutex
	partial map[string]map[sentKey]struct{}
	order   []string
}

func NewTelegramSink(sender TelegramSender, chats *ChatRegistry, log *logger.Logger) *TelegramSink {
	return &TelegramSink{
		sender:  sender,
		chats:   chats,
		log:     log.Component("telegram"),
		partial: make(map[string]map[sentKey]struct{}),
	}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Deliver(ctx context.Context, e Event) error {
	chats := s.chats.IDs()
	if len(chats) == 0 {
		return ErrNoChats
	}

	sent := s.take(e.ID)
	var errs []error
	for i, text := range Render(e) {
		for _, chatID := range chats {
			if err := ctx.Err(); err != nil {
				s.keep(e.ID, sent)
				return err
			}
			key := sentKey{message: i, chat: chatID}
			if _, ok := sent[key]; ok {
				continue
			}
			if _, err := s.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
				errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
				continue
			}
			sent[key] = struct{}{}
		}
	}

	if len(errs) > 0 {
		s.log.Warn("Notification partially delivered",
			"event_id", e.ID,
			"type", e.Type,
			"delivered", len(sent),
			"failed", len(errs),
		)
		s.keep(e.ID, sent)
		return errors.Join(errs...)
	}
	return nil
}

// take removes and returns what was already sent for eventID.
func (s *TelegramSink) take(eventID string) map[sentKey]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	sent, ok := s.partial[eventID]
	if !ok || eventID == "" {
		return make(map[sentKey]struct{})
	}
	delete(s.partial, eventID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == eventID })
	return sent
}

func (s *TelegramSink) keep(eventID string, sent map[sentKey]struct{}) {
	if eventID == "" || len(sent) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partial[eventID]; !ok {
		s.order = append(s.order, eventID)
	}
	s.partial[eventID] = sent
	for len(s.order) > maxPartialEvents {
		delete(s.partial, s.order[0])
		s.order = s.order[1:]
	}
}

// HandleUpdate registers the chat of a /start command and greets the sender.
func (s *TelegramSink) HandleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.Command() != "start" {
		return
	}

	chatID := msg.Chat.ID
	if s.chats.Add(chatID) {
		s.log.Info("Telegram chat registered", "chat_id", chatID)
	}

	name := ""
	if msg.From != nil {
		name = msg.From.FirstName
	}
	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("Hi, %s! You have successfully started using the chat", name))
	if _, err := s.sender.Send(reply); err != nil {
		s.log.Warn("Failed to greet telegram chat", "chat_id", chatID, "error", err)
	}
}

// Listen long-polls bot updates until ctx is canceled.
func (s *TelegramSink) Listen(ctx context.Context, bot *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.HandleUpdate(update)
		}
	}
}
