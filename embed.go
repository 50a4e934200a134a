package codebuddy

import "embed"

// EmbeddedAssets contains the static assets shipped with the app:
// site.css and site.js (filter partial swaps, passcode countdown, chat).
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
