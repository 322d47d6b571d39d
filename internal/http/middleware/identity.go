package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/identity"
)

// Device headers. Browsers rely on the cookie; other clients send the key
// back in HeaderDeviceKey.
const (
	HeaderDeviceFingerprint = "X-Device-Fingerprint"
	HeaderDeviceKey         = "X-Device-Key"
)

const (
	ctxKeyIdentity = "identity"
	ctxKeyStore    = "deviceStore"
	ctxKeyUserID   = "userID"
)

var errNoFingerprint = errors.New("no device fingerprint supplied")

// DeviceCookieOptions configures the cookie that persists the device key.
type DeviceCookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// cookieStore is an identity.KeyStore over the request cookie and the
// response Set-Cookie header. Writes are visible to later reads in the same
// request.
type cookieStore struct {
	c       *gin.Context
	opts    DeviceCookieOptions
	pending map[string]*string
}

func newCookieStore(c *gin.Context, opts DeviceCookieOptions) *cookieStore {
	if opts.Name == "" {
		opts.Name = identity.DeviceKeyName
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 365 * 24 * time.Hour
	}
	return &cookieStore{c: c, opts: opts, pending: map[string]*string{}}
}

func (s *cookieStore) Get(key string) (string, bool) {
	if key != identity.DeviceKeyName {
		return "", false
	}
	if v, ok := s.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	if v, err := s.c.Cookie(s.opts.Name); err == nil && v != "" {
		return v, true
	}
	if v := s.c.GetHeader(HeaderDeviceKey); v != "" {
		return v, true
	}
	return "", false
}

func (s *cookieStore) Set(key, value string) {
	if key != identity.DeviceKeyName {
		return
	}
	s.pending[key] = &value
	s.write(value, int(s.opts.MaxAge.Seconds()))
	s.c.Header(HeaderDeviceKey, value)
}

func (s *cookieStore) Remove(key string) {
	if key != identity.DeviceKeyName {
		return
	}
	s.pending[key] = nil
	s.write("", -1)
	s.c.Writer.Header().Del(HeaderDeviceKey)
}

func (s *cookieStore) write(value string, maxAge int) {
	http.SetCookie(s.c.Writer, &http.Cookie{
		Name:     s.opts.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ResolveIdentity resolves the request's identity after Authenticate has run
// and stores it in the context. The device key is read from and persisted to
// the device cookie; the fingerprint comes from HeaderDeviceFingerprint.
func ResolveIdentity(r identity.Resolver, opts DeviceCookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := newCookieStore(c, opts)
		fp := identity.FingerprintFunc(func(context.Context) (string, error) {
			if v := c.GetHeader(HeaderDeviceFingerprint); v != "" {
				return v, nil
			}
			return "", errNoFingerprint
		})

		id := r.Resolve(c.Request.Context(), AuthFrom(c), fp, store)
		c.Set(ctxKeyIdentity, id)
		c.Set(ctxKeyStore, identity.KeyStore(store))
		c.Set(ctxKeyUserID, id.String())

		setLogger(c, LoggerFrom(c).With().Str("identity_kind", string(id.Kind)).Logger())
		c.Next()
	}
}

// IdentityFrom returns the identity stored by ResolveIdentity.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	if v, ok := c.Get(ctxKeyIdentity); ok {
		if id, ok := v.(domain.Identity); ok && !id.IsZero() {
			return id, true
		}
	}
	return domain.Identity{}, false
}

// KeyStoreFrom returns the device key store bound to this request, or nil.
func KeyStoreFrom(c *gin.Context) identity.KeyStore {
	if v, ok := c.Get(ctxKeyStore); ok {
		if s, ok := v.(identity.KeyStore); ok {
			return s
		}
	}
	return nil
}
