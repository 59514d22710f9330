package utils

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"strings"
	"time"
)

// SanitizeQuery turns a tag query into a filesystem-safe directory
// name: reserved characters become underscores, whitespace runs
// collapse to single spaces, and the result is trimmed.
func SanitizeQuery(name string) string {
	const invalid = `/\:*?"<>|`
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalid, r) {
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(strings.Join(strings.Fields(mapped), " "))
}

// QueryDir is the directory name for a multi-tag query: the tags in
// the user's input order joined by single spaces, sanitized.
func QueryDir(tags []string) string {
	return SanitizeQuery(strings.Join(tags, " "))
}

// MD5Sum hex-encodes the MD5 of everything read from r.
func MD5Sum(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MD5Bytes hex-encodes the MD5 of data.
func MD5Bytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

type semaphore chan struct{}

func (s semaphore) acquire() { s <- struct{}{} }
func (s semaphore) release() { <-s }

// RateLimiter caps operations per second with a refilling semaphore.
type RateLimiter struct {
	limit     int
	semaphore semaphore
	stop      chan struct{}
}

func NewRateLimiter(tokensPerSecond int) *RateLimiter {
	r := &RateLimiter{
		limit:     tokensPerSecond,
		semaphore: make(semaphore, tokensPerSecond),
		stop:      make(chan struct{}),
	}
	for i := 0; i < r.limit; i++ {
		r.semaphore.acquire()
	}
	go r.refill()
	return r
}

func (r *RateLimiter) refill() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			for i := 0; i < r.limit; i++ {
				select {
				case r.semaphore <- struct{}{}:
				default:
				}
			}
		case <-r.stop:
			return
		}
	}
}

// Token blocks until a token is available within the current second.
func (r *RateLimiter) Token() {
	r.semaphore.release()
}

// Stop ends the refill goroutine.
func (r *RateLimiter) Stop() {
	close(r.stop)
}
