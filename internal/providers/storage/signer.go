package storage

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrBadSignature = errors.New("bad_signature")
	ErrLinkExpired  = errors.New("link_expired")
)

// Signer issues and verifies HMAC-signed download links so document
// blobs can be fetched without an authenticated session.
type Signer struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
}

func NewSigner(secret string, ttl time.Duration, baseURL string) *Signer {
	key := []byte(secret)
	if len(key) == 0 {
		// No configured secret: generate a per-process one. Links stop
		// working across restarts, which is acceptable for local use.
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{secret: key, ttl: ttl, baseURL: baseURL}
}

// SignedURL returns a download URL for the key, valid until the TTL
// elapses.
func (s *Signer) SignedURL(key string, filename string, now time.Time) string {
	expires := now.Add(s.ttl).Unix()
	signature := s.sign(key, expires)

	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires, 10))
	query.Set("signature", signature)
	if filename != "" {
		query.Set("filename", filename)
	}
	return fmt.Sprintf("%s/files/%s?%s", s.baseURL, url.PathEscape(key), query.Encode())
}

// Verify checks the signature and expiry for a download request.
func (s *Signer) Verify(key string, expiresRaw string, signature string, now time.Time) error {
	expires, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	expected := s.sign(key, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	if now.Unix() > expires {
		return ErrLinkExpired
	}
	return nil
}

func (s *Signer) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte("."))
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
