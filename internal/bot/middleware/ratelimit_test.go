package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllows(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(42), "запрос %d в пределах лимита", i+1)
	}
	assert.False(t, rl.Allow(42), "четвёртый запрос за окно отклоняется")
	assert.True(t, rl.Allow(43), "лимит считается на пользователя")
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	defer rl.Close()

	assert.True(t, rl.Allow(42))
	assert.False(t, rl.Allow(42))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow(42), "после истечения окна запросы снова проходят")
}
