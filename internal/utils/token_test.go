package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    secret := "test-secret"
    at, err := NewAccessToken(secret, 42, "PROVIDER", 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if at.Token == "" {
        t.Fatal("empty token string")
    }
    if until := time.Until(at.Exp); until < 14*time.Minute || until > 16*time.Minute {
        t.Fatalf("unexpected expiry %v", at.Exp)
    }

    tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
        if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
            t.Fatalf("unexpected signing method %v", tk.Method)
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        t.Fatalf("parse: %v valid=%v", err, tok.Valid)
    }
    claims := tok.Claims.(jwt.MapClaims)
    if sub, _ := claims["sub"].(float64); uint64(sub) != 42 {
        t.Fatalf("sub = %v, want 42", claims["sub"])
    }
    if role, _ := claims["role"].(string); role != "PROVIDER" {
        t.Fatalf("role = %v, want PROVIDER", claims["role"])
    }
}

func TestAccessTokenWrongSecret(t *testing.T) {
    at, err := NewAccessToken("secret-a", 1, "USER", 5)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte("secret-b"), nil
    })
    if err == nil && tok.Valid {
        t.Fatal("token validated with the wrong secret")
    }
}

func TestRefreshTokenHashing(t *testing.T) {
    rt, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if len(rt.Raw) != 96 {
        t.Fatalf("raw length = %d, want 96", len(rt.Raw))
    }
    h1 := HashRefreshRaw(rt.Raw)
    h2 := HashRefreshRaw(rt.Raw)
    if h1 != h2 {
        t.Fatal("hash is not deterministic")
    }
    if h1 == rt.Raw {
        t.Fatal("hash equals raw token")
    }

    other, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if other.Raw == rt.Raw {
        t.Fatal("two refresh tokens collided")
    }
}

func TestPasswordHashAndVerify(t *testing.T) {
    hash, err := HashPassword("hunter2", 4) // minimum cost keeps the test fast
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    if !VerifyPassword(hash, "hunter2") {
        t.Fatal("correct password rejected")
    }
    if VerifyPassword(hash, "hunter3") {
        t.Fatal("wrong password accepted")
    }
}
