package coinbase

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator signs Advanced Trade requests with an ES256 JWT per the CDP
// API key scheme. It holds the parsed EC private key and the key name used
// as both subject and kid.
type Authenticator struct {
	keyName string
	key     *ecdsa.PrivateKey
}

// NewAuthenticator parses the PEM-encoded EC private key.
func NewAuthenticator(keyName string, pemKey []byte) (*Authenticator, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in private key")
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		ec, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is %T, want *ecdsa.PrivateKey", parsed)
		}
		key = ec
	}

	return &Authenticator{keyName: keyName, key: key}, nil
}

// Token builds a signed request token. The uri claim binds it to one method
// and path; tokens expire after two minutes.
func (a *Authenticator) Token(method, host, path string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": "cdp",
		"sub": a.keyName,
		"nbf": now.Unix(),
		"exp": now.Add(2 * time.Minute).Unix(),
		"uri": fmt.Sprintf("%s %s%s", method, host, path),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = a.keyName

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	token.Header["nonce"] = hex.EncodeToString(nonce)

	return token.SignedString(a.key)
}
