package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gameport/arena/brackets"
	"github.com/gameport/arena/models"
	"github.com/gameport/arena/storage"
	"github.com/gameport/arena/store"
)

// LeaderboardUpdate carries the changed fields of one leaderboard entry;
// nil fields keep their stored value.
type LeaderboardUpdate struct {
	Rank     *int
	Username *string
	Avatar   *string
	Score    *int
	Coins    *int
}

// TournamentService owns the TournamentData blob at tournaments/{id}:
// lazy seeding, live subscriptions, and the admin mutations that drive the
// bracket engine.
type TournamentService interface {
	EnsureSeeded(ctx context.Context, tournamentID string) error
	GetData(ctx context.Context, tournamentID string) (models.TournamentData, error)
	Subscribe(ctx context.Context, tournamentID string, handler func(models.TournamentData)) (func(), error)
	ApplyMatchUpdate(ctx context.Context, tournamentID, matchID string, upd brackets.MatchUpdate) (models.TournamentData, error)
	ApplyLeaderboardUpdate(ctx context.Context, tournamentID, entryID string, upd LeaderboardUpdate) (models.TournamentData, error)
	AutoFill(ctx context.Context, tournamentID string, participants []string) (models.TournamentData, error)
	UploadLeaderboardAvatar(ctx context.Context, tournamentID, entryID, contentType string, body io.Reader) (models.TournamentData, error)
}

type tournamentService struct {
	store    *store.Store
	uploader storage.FileUploader // nil when uploads are not configured
	logger   *slog.Logger
}

func NewTournamentService(st *store.Store, uploader storage.FileUploader, logger *slog.Logger) TournamentService {
	return &tournamentService{
		store:    st,
		uploader: uploader,
		logger:   logger,
	}
}

func tournamentPath(tournamentID string) string {
	return "tournaments/" + tournamentID
}

// EnsureSeeded writes the canonical empty bracket and leaderboard if nothing
// is stored yet. Idempotent: existing data is never overwritten, and no
// change event is published for the no-op case.
func (s *tournamentService) EnsureSeeded(ctx context.Context, tournamentID string) error {
	ref := s.store.Ref(tournamentPath(tournamentID))
	return ref.Update(ctx, func(snap store.Snapshot) (any, error) {
		if snap.Exists {
			return nil, store.ErrUnchanged
		}
		s.logger.Info("seeding tournament data", slog.String("tournament_id", tournamentID))
		return brackets.SeedData(), nil
	})
}

// GetData returns the current TournamentData, seeding it first if absent —
// the first viewer to open a bracket screen creates the empty structure.
func (s *tournamentService) GetData(ctx context.Context, tournamentID string) (models.TournamentData, error) {
	if err := s.EnsureSeeded(ctx, tournamentID); err != nil {
		return models.TournamentData{}, err
	}

	snap, err := s.store.Ref(tournamentPath(tournamentID)).Read(ctx)
	if err != nil {
		return models.TournamentData{}, err
	}
	if !snap.Exists {
		return models.TournamentData{}, ErrTournamentDataNotFound
	}

	var data models.TournamentData
	if err := snap.Decode(&data); err != nil {
		return models.TournamentData{}, fmt.Errorf("failed to decode tournament %s data: %w", tournamentID, err)
	}
	return data, nil
}

// Subscribe delivers the current TournamentData immediately and then on
// every change. Absent or undecodable snapshots are skipped.
func (s *tournamentService) Subscribe(ctx context.Context, tournamentID string, handler func(models.TournamentData)) (func(), error) {
	ref := s.store.Ref(tournamentPath(tournamentID))
	return ref.OnChange(ctx, func(snap store.Snapshot) {
		if !snap.Exists {
			return
		}
		var data models.TournamentData
		if err := snap.Decode(&data); err != nil {
			s.logger.Error("undecodable tournament snapshot",
				slog.String("tournament_id", tournamentID), slog.Any("error", err))
			return
		}
		handler(data)
	})
}

// ApplyMatchUpdate merges the changed fields into one match and advances the
// winner into its successor slot, persisting both as a single write.
func (s *tournamentService) ApplyMatchUpdate(ctx context.Context, tournamentID, matchID string, upd brackets.MatchUpdate) (models.TournamentData, error) {
	if upd.Winner != nil && !upd.Winner.Valid() {
		return models.TournamentData{}, ErrInvalidWinnerSlot
	}

	return s.mutate(ctx, tournamentID, func(data *models.TournamentData) error {
		if err := brackets.ApplyMatchUpdate(data, matchID, upd); err != nil {
			if errors.Is(err, brackets.ErrUnknownMatch) {
				return fmt.Errorf("%w: %q in tournament %s", ErrMatchNotFound, matchID, tournamentID)
			}
			return err
		}
		return nil
	})
}

// ApplyLeaderboardUpdate merges the changed fields into one entry. The rank
// field is display-only and is never recomputed from scores.
func (s *tournamentService) ApplyLeaderboardUpdate(ctx context.Context, tournamentID, entryID string, upd LeaderboardUpdate) (models.TournamentData, error) {
	return s.mutate(ctx, tournamentID, func(data *models.TournamentData) error {
		return applyLeaderboardUpdate(data, entryID, upd)
	})
}

// AutoFill overwrites the quarterfinal slots and the whole leaderboard from
// the participant list. Destructive by contract; the handler layer requires
// explicit confirmation.
func (s *tournamentService) AutoFill(ctx context.Context, tournamentID string, participants []string) (models.TournamentData, error) {
	cleaned := normalizeParticipants(participants)
	if len(cleaned) == 0 {
		return models.TournamentData{}, ErrNoParticipants
	}

	return s.mutate(ctx, tournamentID, func(data *models.TournamentData) error {
		brackets.AutoFill(data, cleaned)
		return nil
	})
}

// UploadLeaderboardAvatar stores the image and points the entry's avatar
// field at its public URL.
func (s *tournamentService) UploadLeaderboardAvatar(ctx context.Context, tournamentID, entryID, contentType string, body io.Reader) (models.TournamentData, error) {
	if s.uploader == nil {
		return models.TournamentData{}, ErrUploaderUnavailable
	}

	ext, ok := avatarExtensions[contentType]
	if !ok {
		return models.TournamentData{}, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	key := fmt.Sprintf("avatars/tournaments/%s/%s%s", tournamentID, entryID, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return models.TournamentData{}, fmt.Errorf("failed to upload avatar for entry %s: %w", entryID, err)
	}

	avatarURL := result.Location
	data, err := s.ApplyLeaderboardUpdate(ctx, tournamentID, entryID, LeaderboardUpdate{Avatar: &avatarURL})
	if err != nil {
		// The entry vanished between upload and update; drop the orphan.
		if deleteErr := s.uploader.Delete(ctx, key); deleteErr != nil {
			s.logger.Error("failed to delete orphaned avatar",
				slog.String("key", key), slog.Any("error", deleteErr))
		}
		return models.TournamentData{}, err
	}
	return data, nil
}

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// mutate runs a read-modify-write cycle over the whole TournamentData value
// under the path's write lock and returns the persisted result.
func (s *tournamentService) mutate(ctx context.Context, tournamentID string, fn func(*models.TournamentData) error) (models.TournamentData, error) {
	ref := s.store.Ref(tournamentPath(tournamentID))

	var result models.TournamentData
	err := ref.Update(ctx, func(snap store.Snapshot) (any, error) {
		if !snap.Exists {
			return nil, fmt.Errorf("%w: tournament %s", ErrTournamentDataNotFound, tournamentID)
		}
		var data models.TournamentData
		if err := snap.Decode(&data); err != nil {
			return nil, fmt.Errorf("failed to decode tournament %s data: %w", tournamentID, err)
		}
		if err := fn(&data); err != nil {
			return nil, err
		}
		result = data
		return data, nil
	})
	if err != nil {
		return models.TournamentData{}, err
	}
	return result, nil
}

func applyLeaderboardUpdate(data *models.TournamentData, entryID string, upd LeaderboardUpdate) error {
	for i := range data.Leaderboard {
		if data.Leaderboard[i].ID != entryID {
			continue
		}
		entry := &data.Leaderboard[i]
		if upd.Rank != nil {
			entry.Rank = *upd.Rank
		}
		if upd.Username != nil {
			entry.Username = *upd.Username
		}
		if upd.Avatar != nil {
			entry.Avatar = *upd.Avatar
		}
		if upd.Score != nil {
			entry.Score = *upd.Score
		}
		if upd.Coins != nil {
			entry.Coins = *upd.Coins
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrLeaderboardEntryNotFound, entryID)
}

// normalizeParticipants trims names, drops empties and removes duplicates
// while keeping the input order.
func normalizeParticipants(participants []string) []string {
	seen := make(map[string]bool, len(participants))
	cleaned := make([]string, 0, len(participants))
	for _, name := range participants {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}
