package service

import (
	"context"
	"time"

	"no-time-buddy/internal/model"
)

// Missions due within this many days count as due soon.
const dueSoonDays = 2

// Digest groups active missions by how close their deadline is.
type Digest struct {
	Date     time.Time
	Overdue  []model.Mission
	DueSoon  []model.Mission
	Upcoming []model.Mission
}

func (d Digest) Empty() bool {
	return len(d.Overdue) == 0 && len(d.DueSoon) == 0 && len(d.Upcoming) == 0
}

// DigestService builds periodic summaries of the active missions.
type DigestService struct {
	missions *MissionService
}

func NewDigestService(missions *MissionService) *DigestService {
	return &DigestService{missions: missions}
}

func (s *DigestService) Build(ctx context.Context, now time.Time) (Digest, error) {
	missions, err := s.missions.ListActive(ctx)
	if err != nil {
		return Digest{}, err
	}

	digest := Digest{Date: DateOnly(now, now.Location())}
	for _, m := range missions {
		switch days := DaysLeft(m.Deadline, now); {
		case days < 0:
			digest.Overdue = append(digest.Overdue, m)
		case days <= dueSoonDays:
			digest.DueSoon = append(digest.DueSoon, m)
		default:
			digest.Upcoming = append(digest.Upcoming, m)
		}
	}

	return digest, nil
}
