package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-relay/internal/domain"
	"chat-relay/internal/repository"
)

const whisperPrefix = "/w"

// ChatService enruta mensajes entrantes: clasifica broadcast vs susurro,
// entrega a las sesiones correctas y persiste el registro durable.
// El registry se inyecta en la construcción; ninguna falla de entrega
// o de persistencia se propaga al caller.
type ChatService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	messages repository.MessageRepository
	registry *SessionRegistry
	now      func() time.Time
}

func NewChatService(logger *zap.Logger, users repository.UserRepository, messages repository.MessageRepository, registry *SessionRegistry) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = NewSessionRegistry()
	}
	return &ChatService{
		logger:   logger,
		users:    users,
		messages: messages,
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Registry expone el registro de sesiones para el transporte.
func (s *ChatService) Registry() *SessionRegistry {
	return s.registry
}

// HandleMessage clasifica el contenido entrante por el prefijo /w y
// despacha al camino de susurro o de broadcast. Solo efectos; nada de
// lo que pase adentro llega como error al transporte.
func (s *ChatService) HandleMessage(ctx context.Context, session Session, msg domain.ChatMessage) {
	if strings.HasPrefix(msg.Content, whisperPrefix) {
		s.whisper(ctx, session, msg)
		return
	}
	s.broadcast(ctx, msg)
}

// broadcast persiste primero (recipient nil) y después renderiza una
// sola vez y reparte a toda sesión abierta del snapshot. Sesiones
// cerradas se saltean, no se remueven.
func (s *ChatService) broadcast(ctx context.Context, msg domain.ChatMessage) {
	s.persistRecord(ctx, msg, nil)

	rendered := renderBroadcast(msg, s.now())
	for _, session := range s.registry.Snapshot() {
		if session.IsOpen() {
			s.deliver(session, rendered)
		}
	}
}

// whisper implementa el sub-protocolo /w [name] [message]. El registro
// se persiste antes de mandar las dos copias, que comparten una sola
// lectura de reloj y difieren solo en el framing direccional.
func (s *ChatService) whisper(ctx context.Context, sender Session, msg domain.ChatMessage) {
	msg.SentAt = s.now()

	parts := strings.SplitN(msg.Content, " ", 3)
	if len(parts) < 3 {
		s.deliver(sender, renderWhisperFormatError())
		return
	}
	targetName := parts[1]
	content := parts[2]

	target, ok := s.registry.Get(targetName)
	if !ok || !target.IsOpen() {
		s.deliver(sender, renderTargetOffline(targetName))
		return
	}

	record := msg
	record.Content = content
	s.persistRecord(ctx, record, &targetName)

	s.deliver(sender, renderWhisperSent(msg.Sender, targetName, content, msg.SentAt))
	s.deliver(target, renderWhisperReceived(msg.Sender, targetName, content, msg.SentAt))
}

// UserEnter registra la sesión (reemplazando un handle previo para el
// mismo nombre), reproduce el historial en privado y recién entonces
// anuncia la entrada a todos, incluido el que entra.
func (s *ChatService) UserEnter(ctx context.Context, username string, session Session) {
	s.registry.Put(username, session)
	s.replayHistory(ctx, session, username)
	s.broadcast(ctx, renderJoinNotice(username))
}

// UserExit saca la sesión del registry y anuncia la salida. Salir con
// un nombre no registrado igual emite el aviso.
func (s *ChatService) UserExit(ctx context.Context, username string) {
	s.registry.Remove(username)
	s.broadcast(ctx, renderLeaveNotice(username))
}

// replayHistory reconstruye el historial persistido del usuario y se lo
// manda solo a su sesión, seguido de un divisor. Usuario irresoluble:
// la conexión sigue sin historial.
func (s *ChatService) replayHistory(ctx context.Context, session Session, username string) {
	me, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return
	}

	records, err := s.messages.ListHistoryByUserID(ctx, me.ID)
	if err != nil {
		s.logger.Warn("history fetch failed", zap.String("username", username), zap.Error(err))
		return
	}

	for _, record := range records {
		senderName := s.displayName(ctx, record.SenderID)
		whisper := record.RecipientID != nil
		selfSent := record.SenderID == me.ID
		recipientName := ""
		if whisper && selfSent {
			recipientName = s.displayName(ctx, *record.RecipientID)
		}
		s.deliver(session, renderHistoryRecord(senderName, recipientName, record.Content, selfSent, whisper, record.SentAt))
	}

	s.deliver(session, renderHistoryDivider())
}

func (s *ChatService) displayName(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return unknownName
	}
	return user.Username
}

// persistRecord guarda el registro durable de un mensaje atribuible.
// Remitentes de sistema no se persisten. Remitente irresoluble: se
// abandona la persistencia de ese mensaje (queda en el log) y la
// entrega continúa igual.
func (s *ChatService) persistRecord(ctx context.Context, msg domain.ChatMessage, recipientName *string) {
	if isSystemSender(msg.Sender) {
		return
	}

	sender, err := s.users.GetByUsername(ctx, msg.Sender)
	if err != nil {
		s.logger.Warn("message not persisted: sender unresolved",
			zap.String("sender", msg.Sender), zap.Error(err))
		return
	}

	var recipientID *string
	if recipientName != nil {
		if recipient, err := s.users.GetByUsername(ctx, *recipientName); err == nil {
			recipientID = &recipient.ID
		}
	}

	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = s.now()
	}

	record := domain.MessageRecord{
		ID:          uuid.NewString(),
		SenderID:    sender.ID,
		RecipientID: recipientID,
		Content:     msg.Content,
		SentAt:      sentAt,
	}
	if err := s.messages.Create(ctx, record); err != nil {
		s.logger.Warn("message not persisted", zap.String("sender", msg.Sender), zap.Error(err))
	}
}

// deliver es el sink de entrega: re-chequea apertura justo antes de
// escribir, serializa un objeto JSON por frame y captura cualquier
// falla de escritura sin devolverla. Un pipe roto hacia un destinatario
// no corta un fan-out ni un intercambio de susurro.
func (s *ChatService) deliver(session Session, out domain.Outbound) {
	if session == nil || !session.IsOpen() {
		return
	}
	payload, err := json.Marshal(out)
	if err != nil {
		s.logger.Warn("outbound marshal failed", zap.Error(err))
		return
	}
	if err := session.Send(payload); err != nil {
		s.logger.Warn("send failed", zap.String("sender", out.Sender), zap.Error(err))
	}
}
