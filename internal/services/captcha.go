package services

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	captchaSymbols       = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	DefaultCaptchaLength = 6
)

type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate returns a random code without look-alike characters (no I, O, 0, 1).
// Usage: Store code in session, display it to the user.
func (s *CaptchaService) Generate(length int) string {
	if length <= 0 {
		length = DefaultCaptchaLength
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(captchaSymbols[s.rnd.Intn(len(captchaSymbols))])
	}
	return b.String()
}

// Verify compares the answer with the stored code, ignoring case and surrounding spaces.
func (s *CaptchaService) Verify(expected, answer string) bool {
	if expected == "" {
		return false
	}
	return strings.EqualFold(expected, strings.TrimSpace(answer))
}
