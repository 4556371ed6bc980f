package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims are the parsed token claims.
type Claims struct {
	Subject string
	Scopes  []string
}

// Scopes accepted on the operational surface.
const (
	ScopeRead      = "read"
	ScopeTelemetry = "telemetry"
)

// VerifierConfig selects the signing algorithm and its key material.
type VerifierConfig struct {
	Algorithm    string // "HS256" or "RS256"
	SecretKey    string // HS256
	PublicKeyPEM string // RS256
}

// Verifier validates bearer tokens.
type Verifier struct {
	config    VerifierConfig
	publicKey *rsa.PublicKey
}

// NewVerifier creates a verifier for the configured algorithm.
func NewVerifier(config VerifierConfig) (*Verifier, error) {
	v := &Verifier{config: config}

	switch config.Algorithm {
	case "HS256":
		if config.SecretKey == "" {
			return nil, errors.New("HS256 requires a secret key")
		}
	case "RS256":
		if config.PublicKeyPEM == "" {
			return nil, errors.New("RS256 requires a PEM public key")
		}
		key, err := parsePublicKeyPEM(config.PublicKeyPEM)
		if err != nil {
			return nil, err
		}
		v.publicKey = key
	default:
		return nil, errors.Errorf("unsupported algorithm %q", config.Algorithm)
	}

	return v, nil
}

// VerifyToken validates a token and extracts its claims.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("token cannot be empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != v.config.Algorithm {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		if v.config.Algorithm == "HS256" {
			return []byte(v.config.SecretKey), nil
		}
		return v.publicKey, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(*jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return extractClaims(mapClaims)
}

func extractClaims(mc *jwt.MapClaims) (*Claims, error) {
	sub, ok := (*mc)["sub"].(string)
	if !ok {
		return nil, errors.New("missing or invalid 'sub' claim")
	}

	raw, ok := (*mc)["scopes"]
	if !ok {
		return nil, errors.New("missing 'scopes' claim")
	}
	var scopes []string
	switch val := raw.(type) {
	case []string:
		scopes = val
	case []any:
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("invalid 'scopes' claim: not a string array")
			}
			scopes = append(scopes, s)
		}
	default:
		return nil, errors.New("invalid 'scopes' claim: not a string array")
	}

	for _, s := range scopes {
		if s != ScopeRead && s != ScopeTelemetry {
			return nil, errors.Errorf("unknown scope %q", s)
		}
	}
	if len(scopes) == 0 {
		return nil, errors.New("empty 'scopes' claim")
	}

	return &Claims{Subject: sub, Scopes: scopes}, nil
}

func parsePublicKeyPEM(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parse public key")
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaPub, nil
}
