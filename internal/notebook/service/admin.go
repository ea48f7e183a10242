package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
)

const statsRecentActivity = 10

type AdminService struct {
	clock

	Store    store.Store
	Activity *ActivityService
}

// Stats summarises the system. ActiveToday counts distinct users with any
// activity since midnight UTC.
func (s *AdminService) Stats(ctx context.Context) (domain.AdminStats, error) {
	var (
		st  domain.AdminStats
		err error
	)

	if st.TotalUsers, err = s.Store.Stats().CountUsers(ctx); err != nil {
		return st, mapStoreErr(err)
	}
	if st.TotalNotes, err = s.Store.Stats().CountNotes(ctx); err != nil {
		return st, mapStoreErr(err)
	}

	midnight := s.now().Truncate(24 * time.Hour)
	if st.ActiveToday, err = s.Store.Stats().CountActiveUsersSince(ctx, midnight); err != nil {
		return st, mapStoreErr(err)
	}

	if st.RecentActivity, err = s.Activity.RecentGlobal(ctx, statsRecentActivity); err != nil {
		return st, err
	}
	return st, nil
}
