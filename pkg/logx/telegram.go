package logx

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

// sender is the part of *tele.Bot the sink uses.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// telegramSink is a zerolog LevelWriter that forwards records to an operator chat.
// Records are queued and delivered by one worker; close() drains the queue.
type telegramSink struct {
	bot      sender
	chat     *tele.Chat
	minLevel zerolog.Level
	limiter  *rate.Limiter

	mu     sync.Mutex
	closed bool
	queue  chan string
	wg     sync.WaitGroup
}

func newTelegramSink(cfg TelegramConfig) (*telegramSink, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is not set")
	}
	// Offline skips the getMe round-trip; the sink only sends.
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return startTelegramSink(b, cfg), nil
}

func startTelegramSink(b sender, cfg TelegramConfig) *telegramSink {
	rps := max(1, cfg.RatePerSec)
	s := &telegramSink{
		bot:      b,
		chat:     &tele.Chat{ID: cfg.ChatID},
		minLevel: parseLevel(cfg.MinLevel, zerolog.ErrorLevel),
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		queue:    make(chan string, 64),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for msg := range s.queue {
			if _, err := s.bot.Send(s.chat, msg, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
				fmt.Fprintf(Stderr(), "logx: telegram send failed: %v\n", err)
			}
		}
	}()
	return s
}

func (s *telegramSink) Write(p []byte) (int, error) {
	return s.WriteLevel(zerolog.InfoLevel, p)
}

func (s *telegramSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < s.minLevel || !s.limiter.Allow() {
		return len(p), nil
	}
	msg := formatTelegramJSON(p)
	if msg == "" {
		return len(p), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return len(p), nil
	}
	// Never block core logging.
	select {
	case s.queue <- msg:
	default:
	}
	return len(p), nil
}

func (s *telegramSink) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

func formatTelegramJSON(p []byte) string {
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		// Not JSON; send raw (trimmed), but cap length.
		return truncate(strings.TrimSpace(string(p)), 3500)
	}

	lvl, _ := m["level"].(string)
	msg, _ := m["message"].(string)

	var b strings.Builder
	if lvl != "" {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(lvl))
		b.WriteString("] ")
	}
	b.WriteString(msg)

	keys := make([]string, 0, len(m))
	for k := range m {
		switch k {
		case "time", "level", "message":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(truncate(fmt.Sprint(m[k]), 600))
	}

	return truncate(b.String(), 3500)
}
