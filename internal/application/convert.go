package application

import (
	"errors"
	"strings"

	"github.com/example/sparkboard/internal/persistence"
)

func toUser(u persistence.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toBadge(b persistence.Badge) Badge {
	return Badge{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		ImageURL:    b.ImageURL,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func toAwardedBadges(in []persistence.AwardedBadge) []AwardedBadge {
	out := make([]AwardedBadge, 0, len(in))
	for _, a := range in {
		out = append(out, AwardedBadge{AwardID: a.AwardID, Badge: toBadge(a.Badge), AwardedAt: a.AwardedAt})
	}
	return out
}

func toSparkMoment(m persistence.SparkMoment) SparkMoment {
	return SparkMoment{
		ID:          m.ID,
		Date:        m.Date,
		Description: m.Description,
		UserID:      m.UserID,
		CreatedAt:   m.CreatedAt,
	}
}

func toSparkListing(l persistence.SparkMomentListing) SparkListing {
	return SparkListing{
		SparkMoment: toSparkMoment(l.SparkMoment),
		Owner:       SparkOwner{Name: l.OwnerName, AvatarURL: l.OwnerAvatarURL},
	}
}

func toSession(s persistence.Session) Session {
	return Session{
		ID:        s.ID,
		UserID:    s.UserID,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		RevokedAt: s.RevokedAt,
	}
}

// mapRepoError translates persistence sentinels into application errors. Anything
// unrecognised becomes a PersistenceError carrying the raw message.
func mapRepoError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return persistenceError(op, err)
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
