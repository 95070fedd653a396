package login

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	mailer "pastafresca-backend/email"
	"pastafresca-backend/migrations"

	"github.com/gin-gonic/gin"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// blacklist for manual logout (tokens -> expiry). Not persisted; acceptable for MVP.
// Written on logout and read on every authenticated request, so access goes
// through the mutex.
var (
	blacklistMu sync.Mutex
	blacklist   = map[string]int64{}
)

func blacklistToken(token string, exp int64) {
	blacklistMu.Lock()
	blacklist[token] = exp
	blacklistMu.Unlock()
}

func isBlacklisted(token string, now int64) bool {
	blacklistMu.Lock()
	exp, ok := blacklist[token]
	blacklistMu.Unlock()
	return ok && exp >= now
}

// tokenPayload minimal JWT-like payload
type tokenPayload struct {
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
	Rem   bool   `json:"rem"` // remember flag
	Jti   string `json:"jti"` // unique id
}

func sessionDurations(remember bool) time.Duration {
	defHours := 12
	if v := os.Getenv("SESSION_DEFAULT_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			defHours = n
		}
	}
	remDays := 30
	if v := os.Getenv("SESSION_REMEMBER_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			remDays = n
		}
	}
	if remember {
		return time.Hour * 24 * time.Duration(remDays)
	}
	return time.Hour * time.Duration(defHours)
}

func sessionSecret() []byte {
	s := os.Getenv("SESSION_SECRET")
	if s == "" {
		s = "dev-insecure-secret"
	}
	return []byte(s)
}

func signToken(email string, dur time.Duration, remember bool) (string, int64, error) {
	exp := time.Now().Add(dur).Unix()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payloadBytes, _ := json.Marshal(tokenPayload{Email: email, Exp: exp, Rem: remember, Jti: generateJTI()})
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	mac := hmac.New(sha256.New, sessionSecret())
	mac.Write([]byte(header + "." + payload))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return header + "." + payload + "." + sig, exp, nil
}

func parseToken(token string) (tokenPayload, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return tokenPayload{}, false
	}
	unsigned := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, sessionSecret())
	mac.Write([]byte(unsigned))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return tokenPayload{}, false
	}
	pb, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return tokenPayload{}, false
	}
	var tp tokenPayload
	if err := json.Unmarshal(pb, &tp); err != nil {
		return tokenPayload{}, false
	}
	if tp.Exp < time.Now().Unix() {
		return tokenPayload{}, false
	}
	if isBlacklisted(token, time.Now().Unix()) {
		return tokenPayload{}, false
	}
	return tp, true
}

func generateJTI() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405")
	}
	return hex.EncodeToString(b)
}

// GetEmailFromToken validates signature + expiry and returns email
func GetEmailFromToken(token string) (string, bool) {
	tp, ok := parseToken(token)
	if !ok {
		return "", false
	}
	return tp.Email, true
}

// CurrentUser resolves the requester from the Authorization header.
// Returns nil when the token is missing, invalid or the user no longer exists.
func CurrentUser(c *gin.Context) *migrations.User {
	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" {
		return nil
	}
	email, ok := GetEmailFromToken(token)
	if !ok {
		return nil
	}
	return migrations.GetUserByEmail(email)
}

// RequireUser aborts with 401 when there is no valid session.
func RequireUser(c *gin.Context) *migrations.User {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido o expirado"})
		c.Abort()
	}
	return user
}

// RequireAdmin aborts with 401/403 unless the session belongs to an ADMIN.
func RequireAdmin(c *gin.Context) *migrations.User {
	user := RequireUser(c)
	if user == nil {
		return nil
	}
	if user.Role != "ADMIN" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Requiere rol administrador"})
		c.Abort()
		return nil
	}
	return user
}

func userResponse(user *migrations.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"full_name":  user.FirstName + " " + user.LastName,
		"email":      user.Email,
		"role":       user.Role,
		"street":     user.Street,
		"number":     user.Number,
		"city":       user.City,
		"phone":      user.Phone,
		"created_at": user.CreatedAt.Format(time.RFC3339),
		"updated_at": user.UpdatedAt.Format(time.RFC3339),
	}
}

func Handler(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}

	// Normalize inputs
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))
	creds.Password = strings.TrimSpace(creds.Password)

	user := migrations.GetUserByEmail(creds.Email)
	if user != nil && user.Password == creds.Password {
		dur := sessionDurations(creds.Remember)
		token, exp, _ := signToken(user.Email, dur, creds.Remember)
		c.JSON(http.StatusOK, gin.H{"token": token, "user": userResponse(user), "expires_at": exp, "remember": creds.Remember})
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
	}
}

func SessionHandler(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
		return
	}
	tp, ok := parseToken(token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
		return
	}
	user := migrations.GetUserByEmail(tp.Email)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuario no encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userResponse(user)})
}

// LogoutHandler invalidates the token
func LogoutHandler(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token requerido"})
		return
	}
	// Add to blacklist until its natural expiry (best effort)
	if tp, ok := parseToken(token); ok {
		blacklistToken(token, tp.Exp)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada"})
}

type RegisterPayload struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Street   string `json:"street"`
	Number   string `json:"number"`
	City     string `json:"city"`
	Phone    string `json:"phone"`
}

// RegisterHandler creates a CLIENT account and returns a session token, so the
// storefront can log the user in right after signing up.
func RegisterHandler(c *gin.Context) {
	var p RegisterPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	if p.Email == "" || p.Password == "" || p.Name == "" || p.LastName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Campos requeridos faltantes"})
		return
	}
	if exists, err := migrations.EmailExists(p.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error validando usuario"})
		return
	} else if exists {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "El correo ya está registrado"})
		return
	}
	if _, err := migrations.CreateUser(p.Name, p.LastName, p.Email, p.Password, "CLIENT", p.Street, p.Number, p.City, p.Phone); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo crear el usuario"})
		return
	}
	if err := mailer.SendWelcome(p.Email); err != nil {
		log.Printf("send welcome email failed for %s: %v", p.Email, err)
	}
	user := migrations.GetUserByEmail(p.Email)
	if user == nil {
		c.Status(http.StatusCreated)
		return
	}
	token, exp, _ := signToken(user.Email, sessionDurations(false), false)
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": userResponse(user), "expires_at": exp})
}

type ChangePasswordPayload struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func ChangePasswordHandler(c *gin.Context) {
	var p ChangePasswordPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}
	user := RequireUser(c)
	if user == nil {
		return
	}
	if user.Password != p.OldPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
		return
	}
	if err := migrations.UpdateUserPassword(user.ID, p.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo actualizar la contraseña"})
		return
	}
	if err := mailer.SendPasswordChanged(user.Email); err != nil {
		log.Printf("send password change email failed for %s: %v", user.Email, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contraseña actualizada"})
}
