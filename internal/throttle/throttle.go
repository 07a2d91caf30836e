// Package throttle limits request rates per caller.
package throttle

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// Rate allows Requests per Period, with bursts up to Requests.
type Rate struct {
	Requests int
	Period   time.Duration
}

// ParseRate reads "N/period", e.g. "100/day". An empty string disables
// the rate.
func ParseRate(s string) (Rate, error) {
	if s == "" {
		return Rate{}, nil
	}
	n, period, err := utils.ParseRate(s)
	if err != nil {
		return Rate{}, err
	}
	return Rate{Requests: n, Period: period}, nil
}

func (r Rate) enabled() bool { return r.Requests > 0 && r.Period > 0 }

func (r Rate) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(r.Period/time.Duration(r.Requests)), r.Requests)
}

type Config struct {
	Anon      Rate
	User      Rate
	CacheSize int
}

// Throttler keeps one token bucket per caller. Anonymous callers are keyed
// by client IP, authenticated ones by user ID.
type Throttler struct {
	cfg      Config
	limiters *expirable.LRU[string, *rate.Limiter]
	now      func() time.Time
}

func New(cfg Config) *Throttler {
	size := cfg.CacheSize
	if size <= 0 {
		size = 10000
	}
	ttl := cfg.Anon.Period
	if cfg.User.Period > ttl {
		ttl = cfg.User.Period
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Throttler{
		cfg:      cfg,
		limiters: expirable.NewLRU[string, *rate.Limiter](size, nil, ttl),
		now:      time.Now,
	}
}

// Middleware must run after auth.Authenticate.
func (t *Throttler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, r := t.identify(c)
		if !r.enabled() {
			c.Next()
			return
		}
		limiter := t.limiter(key, r)

		reservation := limiter.ReserveN(t.now(), 1)
		if !reservation.OK() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Request was throttled."})
			return
		}
		if delay := reservation.DelayFrom(t.now()); delay > 0 {
			reservation.CancelAt(t.now())
			wait := int(math.Ceil(delay.Seconds()))
			c.Header("Retry-After", strconv.Itoa(wait))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": fmt.Sprintf("Request was throttled. Expected available in %d seconds.", wait),
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(r.Requests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%.0f", math.Max(0, limiter.TokensAt(t.now()))))
		c.Next()
	}
}

func (t *Throttler) identify(c *gin.Context) (string, Rate) {
	if actor := auth.ActorFrom(c); actor != nil {
		return "user:" + strconv.FormatInt(actor.ID, 10), t.cfg.User
	}
	return "anon:" + c.ClientIP(), t.cfg.Anon
}

func (t *Throttler) limiter(key string, r Rate) *rate.Limiter {
	limiter, ok := t.limiters.Get(key)
	if !ok {
		limiter = r.limiter()
		t.limiters.Add(key, limiter)
	}
	return limiter
}
