package service

import (
	"testing"
	"time"

	"chat-relay/internal/domain"
)

var renderAt = time.Date(2024, 5, 14, 10, 5, 0, 0, time.UTC)

func TestRenderBroadcast(t *testing.T) {
	out := renderBroadcast(domain.ChatMessage{Sender: "alice", Content: "hola"}, renderAt)
	if out.Sender != "alice" {
		t.Fatalf("unexpected sender %q", out.Sender)
	}
	if out.Content != "hola | 10:05" {
		t.Fatalf("unexpected content %q", out.Content)
	}
}

func TestRenderWhisperCopies(t *testing.T) {
	sent := renderWhisperSent("alice", "bob", "hello", renderAt)
	if sent.Content != "(me->bob<sent>): hello | 10:05" {
		t.Fatalf("unexpected sent copy %q", sent.Content)
	}
	received := renderWhisperReceived("alice", "bob", "hello", renderAt)
	if received.Content != "(alice->bob<received>): hello | 10:05" {
		t.Fatalf("unexpected received copy %q", received.Content)
	}
	if sent.Sender != "alice" || received.Sender != "alice" {
		t.Fatalf("both copies carry the original sender")
	}
}

func TestRenderNotices(t *testing.T) {
	if out := renderWhisperFormatError(); out.Sender != SystemSender {
		t.Fatalf("format error must be system labeled, got %q", out.Sender)
	}
	out := renderTargetOffline("bob")
	if out.Sender != ErrorSender {
		t.Fatalf("offline notice must be error labeled, got %q", out.Sender)
	}
	if out.Content != "bob is not currently connected" {
		t.Fatalf("unexpected offline notice %q", out.Content)
	}
	if msg := renderJoinNotice("bob"); msg.Sender != SystemSenderBracket || msg.Content != "bob has joined the chat" {
		t.Fatalf("unexpected join notice %+v", msg)
	}
	if msg := renderLeaveNotice("bob"); msg.Sender != SystemSenderBracket || msg.Content != "bob has left the chat" {
		t.Fatalf("unexpected leave notice %+v", msg)
	}
}

func TestRenderHistoryRecord(t *testing.T) {
	plain := renderHistoryRecord("alice", "", "hola", true, false, renderAt)
	if plain.Content != "hola | 10:05" {
		t.Fatalf("broadcast history must stay plain, got %q", plain.Content)
	}

	sent := renderHistoryRecord("alice", "bob", "secret", true, true, renderAt)
	if sent.Content != "(me->bob<sent>): secret | 10:05" {
		t.Fatalf("unexpected self-sent line %q", sent.Content)
	}

	received := renderHistoryRecord("bob", "", "secret", false, true, renderAt)
	if received.Content != "(bob->me<received>): secret | 10:05" {
		t.Fatalf("unexpected received line %q", received.Content)
	}
}

func TestIsSystemSender(t *testing.T) {
	for _, label := range []string{SystemSender, SystemSenderBracket, ErrorSender} {
		if !isSystemSender(label) {
			t.Fatalf("expected %q to be recognized", label)
		}
	}
	if isSystemSender("alice") {
		t.Fatalf("regular usernames are not system senders")
	}
}
