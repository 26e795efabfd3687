package providers

import (
	"time"

	"golang.org/x/oauth2"
)

func tokenSetFromOAuth2(token *oauth2.Token) *TokenSet {
	set := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		set.ExpiresAt = &expiry
	}
	if scope, ok := token.Extra("scope").(string); ok {
		set.Scope = scope
	}
	return set
}

func parseRFC3339(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// truncateBody keeps upstream error details readable in logs.
func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
