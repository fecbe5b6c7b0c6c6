package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/finletter/internal/http/response"
)

const (
	// visitorTTL через сколько простоя лимитер адреса забывается.
	visitorTTL = 10 * time.Minute
	// sweepInterval как часто удаляются забытые адреса.
	sweepInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter набор лимитеров по адресу клиента.
type IPLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	rps       rate.Limit
	burst     int
	now       func() time.Time
}

// NewIPLimiter создает лимитер на rps запросов в секунду с запасом burst.
func NewIPLimiter(rps float64, burst int) *IPLimiter {
	return &IPLimiter{
		visitors: map[string]*visitor{},
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow сообщает, можно ли пропустить запрос с адреса ip.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= sweepInterval {
		l.sweep(now)
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *IPLimiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware отвечает 429, когда адрес превысил лимит.
// Адрес берется из RemoteAddr. Если перед ним стоит middleware.RealIP, сервис
// должен работать только за доверенным прокси, который перезаписывает
// X-Forwarded-For и X-Real-IP: иначе клиент подставляет любой адрес.
func RateLimitMiddleware(log *slog.Logger, limiter *IPLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				log.Warn("too many requests", slog.String("ip", ip))
				response.JSONError(w, r, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
