package service

import (
	"fmt"
	"time"

	"chat-relay/internal/domain"
)

// Labels de remitente reservados. Mensajes con estos remitentes nunca
// se persisten.
const (
	SystemSender        = "system"
	SystemSenderBracket = "[system]"
	ErrorSender         = "[ERROR]"
)

const (
	timeLayout     = "15:04"
	unknownName    = "(unknown)"
	historyDivider = "------------ previous messages ------------"
)

// formatClock devuelve la hora legible que se anexa al render.
func formatClock(t time.Time) string {
	return t.Format(timeLayout)
}

func renderBroadcast(msg domain.ChatMessage, at time.Time) domain.Outbound {
	return domain.Outbound{
		Sender:  msg.Sender,
		Content: msg.Content + " | " + formatClock(at),
	}
}

func renderWhisperSent(sender, target, content string, at time.Time) domain.Outbound {
	return domain.Outbound{
		Sender:  sender,
		Content: fmt.Sprintf("(me->%s<sent>): %s | %s", target, content, formatClock(at)),
	}
}

func renderWhisperReceived(sender, target, content string, at time.Time) domain.Outbound {
	return domain.Outbound{
		Sender:  sender,
		Content: fmt.Sprintf("(%s->%s<received>): %s | %s", sender, target, content, formatClock(at)),
	}
}

func renderWhisperFormatError() domain.Outbound {
	return domain.Outbound{
		Sender:  SystemSender,
		Content: "format error: /w [name] [message]",
	}
}

func renderTargetOffline(target string) domain.Outbound {
	return domain.Outbound{
		Sender:  ErrorSender,
		Content: target + " is not currently connected",
	}
}

func renderJoinNotice(username string) domain.ChatMessage {
	return domain.ChatMessage{
		Sender:  SystemSenderBracket,
		Content: username + " has joined the chat",
	}
}

func renderLeaveNotice(username string) domain.ChatMessage {
	return domain.ChatMessage{
		Sender:  SystemSenderBracket,
		Content: username + " has left the chat",
	}
}

func renderHistoryDivider() domain.Outbound {
	return domain.Outbound{
		Sender:  SystemSender,
		Content: historyDivider,
	}
}

// renderHistoryRecord arma la línea de replay de un registro persistido
// desde el punto de vista del usuario que se reconecta. Broadcasts van
// planos; susurros se etiquetan según la dirección. El timestamp es el
// original del registro, no "ahora".
func renderHistoryRecord(senderName, recipientName, content string, selfSent, whisper bool, at time.Time) domain.Outbound {
	body := content
	if whisper {
		if selfSent {
			body = fmt.Sprintf("(me->%s<sent>): %s", recipientName, content)
		} else {
			body = fmt.Sprintf("(%s->me<received>): %s", senderName, content)
		}
	}
	return domain.Outbound{
		Sender:  senderName,
		Content: body + " | " + formatClock(at),
	}
}

// isSystemSender reconoce los labels reservados que el paso de
// persistencia debe ignorar.
func isSystemSender(sender string) bool {
	return sender == SystemSender || sender == SystemSenderBracket || sender == ErrorSender
}
