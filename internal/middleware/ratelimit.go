package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/discover-nairobi/internal/config"
)

// takeTokens refills the bucket in KEYS[1] and takes ARGV[6] tokens when
// that many are available.  Returns {allowed, remaining, wait_ms}.
var takeTokens = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])
local cost = tonumber(ARGV[6])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'stamp'))
if tokens == nil or stamp == nil then
	tokens, stamp = capacity, now
end

local ticks = math.floor(math.max(0, now - stamp) / interval)
if ticks > 0 then
	tokens = math.min(capacity, tokens + ticks * refill)
	stamp = stamp + ticks * interval
end

local wait = 0
local ok = 0
if tokens >= cost then
	ok = 1
	tokens = tokens - cost
else
	local missing = math.ceil((cost - tokens) / refill)
	wait = math.max(0, missing * interval - (now - stamp))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('EXPIRE', KEYS[1], ttl)
return { ok, tokens, wait }
`)

// requestCost is what one request takes from the bucket.  Writes under
// /v1 (checkout, payment steps, organizer edits) cost cfg.WriteCost.
func requestCost(cfg config.RateLimitConfig, c echo.Context) int {
	switch c.Request().Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return 1
	}
	if strings.HasPrefix(c.Path(), "/v1/") {
		return cfg.WriteCost
	}
	return 1
}

// NewTokenBucket limits requests with a Redis token bucket keyed according
// to cfg.KeyStrategy.  Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.WriteCost < 1 {
		cfg.WriteCost = 1
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			cost := requestCost(cfg, c)
			res, err := takeTokens.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
				cost,
			).Int64Slice()
			if err != nil || len(res) != 3 {
				c.Logger().Warnf("ratelimit %s: %v", key, err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
				h.Set("X-RateLimit-Cost", strconv.Itoa(cost))
			}
			if res[0] == 1 {
				return next(c)
			}

			wait := int(math.Ceil(float64(res[2]) / 1000))
			h.Set("Retry-After", strconv.Itoa(wait))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": wait,
			})
		}
	}
}

// buildRateKey joins the key parts chosen by cfg.KeyStrategy, an
// underscore-separated list of ip, user and route.  Unknown strategies
// use all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	strategy := strings.ToLower(cfg.KeyStrategy)
	parts := strings.Split(strategy, "_")
	known := map[string]bool{"ip": true, "user": true, "route": true}
	for _, p := range parts {
		if !known[p] {
			parts = []string{"ip", "user", "route"}
			break
		}
	}

	key := []string{cfg.Prefix}
	for _, p := range parts {
		switch p {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key = append(key, "ip", ip)
		case "user":
			key = append(key, "user", subject(c))
		case "route":
			key = append(key, "route", c.Request().Method+" "+c.Path())
		}
	}
	return strings.Join(key, ":")
}
