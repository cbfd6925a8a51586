// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec provides cryptographic primitives and identity security services.

It encapsulates sensitive operations like password hashing, token signing, and
the sudo-elevation check used to gate mutation of protected models.

Core Components:

  - JWT: RS256-signed tokens for stateless authentication.
  - Hash: Secure password derivation using Bcrypt.
  - Token: CSPRNG helpers for tenant bootstrap secrets.

JWT issuance and tenant bootstrapping are treated as external collaborators;
this package only verifies and carries the claims the core consumes.
*/
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Identity Claims

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// The Observer Pipeline's Security ring (ring 2) evaluates PrincipalIDs
// against a record's access_* arrays; Metabase's system-model protection
// checks IsSudo before permitting mutation of a status=system schema.
type AuthClaims struct {
	jwt.RegisteredClaims

	// TenantID identifies the logical database namespace this caller operates in.
	TenantID string `json:"tid"`
	// PrincipalIDs are the identifiers checked against a record's access_* arrays.
	// A caller may carry more than one (e.g. a user ID plus one or more group IDs).
	PrincipalIDs []string `json:"pids"`
	// IsSudo marks a caller as holding the elevation claim required to mutate
	// models whose status is "system".
	IsSudo bool `json:"sudo"`
}

// HasSudo reports whether the caller may mutate protected (status=system) models.
func (c *AuthClaims) HasSudo() bool {
	return c.IsSudo
}

// HasPrincipal reports whether id is among the caller's principal IDs.
func (c *AuthClaims) HasPrincipal(id string) bool {
	for _, p := range c.PrincipalIDs {
		if p == id {
			return true
		}
	}
	return false
}

// # Token Provider (RSA)

// TokenService handles generation and verification of JWT tokens using RS256.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
}

// NewTokenService creates a new TokenService.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {

	// Load the Private Key for signing
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	// Load the Public Key for verification
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	// Parse the public key
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
	}, nil
}

// GenerateAccessToken creates a new JWT access token for a tenant principal.
func (service *TokenService) GenerateAccessToken(tenantID string, principalIDs []string, isSudo bool, timeToLive time.Duration) (string, error) {

	currentTime := time.Now()

	subject := tenantID
	if len(principalIDs) > 0 {
		subject = principalIDs[0]
	}

	// Construct the claims with standard Registered claims (iss, sub, iat, exp)
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		TenantID:     tenantID,
		PrincipalIDs: principalIDs,
		IsSudo:       isSudo,
	}

	// Sign the token using the RS256 algorithm (Asymmetric)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)

	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {

	// Parse the token and validate the signing method
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {

		// Ensure the token use RSA as the signing method
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}

		return service.publicKey, nil
	})

	// Handle parsing/validation errors (e.g. expired, malformed)
	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	// Extract the claims and check the 'Valid' flag
	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
