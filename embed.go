package moonlight

import "embed"

// EmbeddedAssets contains the files shipped with the binary: the stylesheet,
// the favicon and the legal texts.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
