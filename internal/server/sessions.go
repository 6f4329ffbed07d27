package server

import (
	"net/http"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/git-pkgs/compare/search"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "pkgcompare_session"

// sessions maps cookie ids to per-visitor controllers. The least recently
// used session is dropped once the cache is full.
type sessions struct {
	cache   *lru.Cache[string, *search.Controller]
	factory func() *search.Controller
	metrics *metrics
}

func newSessions(size int, m *metrics, factory func() *search.Controller) (*sessions, error) {
	s := &sessions{factory: factory, metrics: m}
	cache, err := lru.NewWithEvict[string, *search.Controller](size, func(string, *search.Controller) {
		m.sessionsEvicted.Inc()
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// lookup returns the controller for the request's cookie, if any.
func (s *sessions) lookup(r *http.Request) (*search.Controller, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return s.cache.Get(c.Value)
}

// acquire returns the request's controller, starting a session and setting
// its cookie when the request has none or it has expired.
func (s *sessions) acquire(w http.ResponseWriter, r *http.Request) *search.Controller {
	if ctrl, ok := s.lookup(r); ok {
		return ctrl
	}

	id := uuid.NewString()
	ctrl := s.factory()
	s.cache.Add(id, ctrl)
	s.metrics.sessions.Set(float64(s.cache.Len()))

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return ctrl
}

func (s *sessions) len() int {
	return s.cache.Len()
}
