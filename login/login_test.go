package login

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTokenRoundTrip(t *testing.T) {
	token, exp, err := signToken("cliente@pastafresca.com.ar", time.Hour, false)
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Fatal("expiry in the past")
	}
	email, ok := GetEmailFromToken(token)
	if !ok {
		t.Fatal("token did not validate")
	}
	if email != "cliente@pastafresca.com.ar" {
		t.Fatalf("unexpected email: %s", email)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	token, _, _ := signToken("cliente@pastafresca.com.ar", time.Hour, false)
	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	if _, ok := GetEmailFromToken(strings.Join(parts, ".")); ok {
		t.Fatal("tampered token accepted")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, _, _ := signToken("cliente@pastafresca.com.ar", -time.Minute, false)
	if _, ok := GetEmailFromToken(token); ok {
		t.Fatal("expired token accepted")
	}
}

func TestBlacklistedTokenRejected(t *testing.T) {
	token, exp, _ := signToken("cliente@pastafresca.com.ar", time.Hour, false)
	blacklistToken(token, exp)
	defer func() {
		blacklistMu.Lock()
		delete(blacklist, token)
		blacklistMu.Unlock()
	}()
	if _, ok := GetEmailFromToken(token); ok {
		t.Fatal("blacklisted token accepted")
	}
}

func TestLogoutConcurrentWithTokenValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/logout", LogoutHandler)

	tokens := make([]string, 32)
	for i := range tokens {
		tokens[i], _, _ = signToken("cliente@pastafresca.com.ar", time.Hour, false)
	}

	var wg sync.WaitGroup
	for _, tok := range tokens {
		wg.Add(2)
		go func(tok string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("logout failed: %d", w.Code)
			}
		}(tok)
		go func(tok string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				GetEmailFromToken(tok)
			}
		}(tok)
	}
	wg.Wait()

	for _, tok := range tokens {
		if _, ok := GetEmailFromToken(tok); ok {
			t.Fatal("token still valid after logout")
		}
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b", "a.b.c.d"} {
		if _, ok := GetEmailFromToken(tok); ok {
			t.Fatalf("garbage token %q accepted", tok)
		}
	}
}
