package utilities

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSessionToken = errors.New("invalid or expired session token")

// SessionClaims carry the client-held question cursor of an interview.
type SessionClaims struct {
	InterviewID string `json:"interview_id"`
	Index       int    `json:"index"`
	jwt.RegisteredClaims
}

// SessionToken signs and verifies cursor tokens with HS256.
type SessionToken struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewSessionToken(secret string, expiry time.Duration) *SessionToken {
	return &SessionToken{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue returns a signed token for the cursor position.
func (s *SessionToken) Issue(interviewID string, index int) (string, error) {
	now := s.now()
	claims := &SessionClaims{
		InterviewID: interviewID,
		Index:       index,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   interviewID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies the token and checks it belongs to interviewID.
func (s *SessionToken) Parse(tokenStr, interviewID string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSessionToken
	}
	if claims.InterviewID != interviewID {
		return nil, fmt.Errorf("%w: token belongs to another interview", ErrInvalidSessionToken)
	}
	if claims.Index < 0 {
		return nil, fmt.Errorf("%w: negative index", ErrInvalidSessionToken)
	}
	return claims, nil
}
