package memory

import (
	"time"

	"ai-casebrief-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps resumable reasoning sessions keyed by case id.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	cp := *session
	cp.Transcript = append([]store.TranscriptEntry(nil), session.Transcript...)
	cp.OutstandingFields = append([]string(nil), session.OutstandingFields...)
	r.cache.Set(session.ID, &cp, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		s := *x.(*store.Session)
		s.Transcript = append([]store.TranscriptEntry(nil), s.Transcript...)
		return &s, true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
