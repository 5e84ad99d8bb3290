package service

import "sync"

// Session es la capacidad de empujar un mensaje serializado a un cliente
// conectado. El transporte concreto vive en internal/ws.
type Session interface {
	IsOpen() bool
	Send(payload []byte) error
}

// SessionRegistry mantiene el mapa username -> sesión activa con
// sincronización interna. A lo sumo una sesión por username: un Put
// posterior para el mismo nombre reemplaza el handle anterior sin
// cerrarlo ni avisarle.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]Session),
	}
}

// Put registra la sesión para el username, reemplazando cualquier
// handle anterior (last-writer-wins).
func (r *SessionRegistry) Put(username string, session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[username] = session
}

// Remove descarta el handle del username. Es idempotente: remover un
// nombre ausente no hace nada.
func (r *SessionRegistry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, username)
}

func (r *SessionRegistry) Get(username string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[username]
	return session, ok
}

// Snapshot devuelve una copia del mapa al momento de la llamada.
// El fan-out itera la copia sin sostener el lock, así que sesiones que
// entran durante el fan-out pueden no recibir ese mensaje.
func (r *SessionRegistry) Snapshot() map[string]Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Session, len(r.sessions))
	for name, session := range r.sessions {
		out[name] = session
	}
	return out
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
