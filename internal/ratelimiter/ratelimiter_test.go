package ratelimiter

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestSendDelayPrivateChat(t *testing.T) {
	if delay := sendDelay(42, time.Now().Add(-2*time.Second)); delay != 0 {
		t.Fatalf("expected no delay after the rate window, got %v", delay)
	}

	delay := sendDelay(42, time.Now())
	if delay <= 0 || delay > privateChatRate {
		t.Fatalf("expected delay within (0, %v], got %v", privateChatRate, delay)
	}
}

func TestSendDelayGroupChatIsSlower(t *testing.T) {
	now := time.Now()

	private := sendDelay(42, now)
	group := sendDelay(-42, now)

	if group <= private {
		t.Fatalf("expected group delay %v to exceed private delay %v", group, private)
	}
}

func TestChatIDOf(t *testing.T) {
	msg := tgbotapi.NewMessage(7, "hi")
	if got := chatIDOf(msg); got != 7 {
		t.Fatalf("expected chat ID 7, got %d", got)
	}

	photo := tgbotapi.NewPhoto(9, tgbotapi.FileURL("https://static.example/a.png"))
	if got := chatIDOf(photo); got != 9 {
		t.Fatalf("expected chat ID 9, got %d", got)
	}

	action := tgbotapi.NewChatAction(11, tgbotapi.ChatTyping)
	if got := chatIDOf(action); got != 11 {
		t.Fatalf("expected chat ID 11, got %d", got)
	}
}
