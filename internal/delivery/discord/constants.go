package discord

const (
	// Display limits
	maxMessageLength  = 2000
	competitionsLimit = 25
	matchesLimit      = 30
	maxSources        = 5

	// Embed colors
	colorPitch = 0x2ECC71 // Score and stats
	colorBlue  = 0x3498DB // Catalogue listings

	sessionPrefix = "discord"
	exportName    = "match-chat.xlsx"
)
