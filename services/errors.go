package services

import "errors"

// Errors shared across services and the HTTP mapping layer.
var (
	ErrValidationFailed = errors.New("validation failed")

	// Tournament data
	ErrTournamentDataNotFound   = errors.New("tournament data not found")
	ErrMatchNotFound            = errors.New("bracket match not found")
	ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")
	ErrNoParticipants           = errors.New("participant list is empty")
	ErrInvalidWinnerSlot        = errors.New("winner must be player1 or player2")

	// Chat
	ErrChatParticipantsRequired = errors.New("both chat participant ids are required")
	ErrSenderRequired           = errors.New("sender id is required")
	ErrEmptyMessage             = errors.New("message text must not be empty")

	// Uploads
	ErrUploaderUnavailable    = errors.New("avatar storage is not configured")
	ErrUnsupportedContentType = errors.New("unsupported avatar content type")
)
