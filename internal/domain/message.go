package domain

import "time"

// ChatMessage es el mensaje entrante tal como lo envía el cliente.
// Sender siempre es un display name, nunca un ID interno. El contenido
// llega crudo; el render de salida vive en Outbound.
type ChatMessage struct {
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"-"`
}

// Outbound es el valor ya renderizado que va al wire, inmutable.
// Un objeto JSON por frame de transporte.
type Outbound struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// MessageRecord es el registro persistido de un mensaje.
// RecipientID nil significa broadcast. Content nunca incluye el sufijo
// de hora que se agrega al renderizar.
type MessageRecord struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID *string   `json:"recipient_id,omitempty"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
}
