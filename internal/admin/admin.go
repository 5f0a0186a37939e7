// Package admin is the administrator dashboard: totals, the user list with
// role toggling and deletion, and the feedback list.
package admin

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"itask-cli/internal/model"
)

type API interface {
	AdminStats(ctx context.Context) (model.Stats, error)
	AdminUsers(ctx context.Context) ([]model.User, error)
	AdminFeedbacks(ctx context.Context) ([]model.Feedback, error)
	SetUserRole(ctx context.Context, userID string, role model.Role) error
	DeleteUser(ctx context.Context, userID string) error
	DeleteFeedback(ctx context.Context, feedbackID string) error
}

type Tab string

const (
	TabStats     Tab = "stats"
	TabUsers     Tab = "users"
	TabFeedbacks Tab = "feedbacks"
)

var Tabs = []Tab{TabStats, TabUsers, TabFeedbacks}

func (t Tab) Label() string {
	switch t {
	case TabUsers:
		return "Users"
	case TabFeedbacks:
		return "Feedback"
	default:
		return "Dashboard"
	}
}

func ParseTab(s string) Tab {
	for _, t := range Tabs {
		if string(t) == s {
			return t
		}
	}
	return TabStats
}

// Snapshot is one consistent read of the dashboard.
type Snapshot struct {
	Stats     model.Stats
	Users     []model.User
	Feedbacks []model.Feedback
}

type Dashboard struct {
	api API
	log *zap.Logger

	snap   Snapshot
	loaded bool
}

func New(a API, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dashboard{api: a, log: log}
}

// Fetch reads stats, users and feedbacks concurrently.
func (d *Dashboard) Fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := d.api.AdminStats(gctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		snap.Stats = s
		return nil
	})
	g.Go(func() error {
		u, err := d.api.AdminUsers(gctx)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		snap.Users = u
		return nil
	})
	g.Go(func() error {
		f, err := d.api.AdminFeedbacks(gctx)
		if err != nil {
			return fmt.Errorf("feedbacks: %w", err)
		}
		snap.Feedbacks = f
		return nil
	})
	if err := g.Wait(); err != nil {
		d.log.Warn("admin fetch failed", zap.Error(err))
		return Snapshot{}, err
	}
	return snap, nil
}

func (d *Dashboard) Apply(snap Snapshot) {
	d.snap = snap
	d.loaded = true
}

func (d *Dashboard) Load(ctx context.Context) error {
	snap, err := d.Fetch(ctx)
	if err != nil {
		return err
	}
	d.Apply(snap)
	return nil
}

func (d *Dashboard) Loaded() bool       { return d.loaded }
func (d *Dashboard) Snapshot() Snapshot { return d.snap }

func (d *Dashboard) User(id string) (model.User, bool) {
	for _, u := range d.snap.Users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// RefreshError means the backend applied a change but rereading the
// dashboard failed. Commit applies the change to the current snapshot.
type RefreshError struct {
	Err   error
	patch func(Snapshot) Snapshot
}

func (e *RefreshError) Error() string { return "refresh dashboard: " + e.Err.Error() }
func (e *RefreshError) Unwrap() error { return e.Err }

// Commit applies the result of ToggleRole, DeleteUser or DeleteFeedback and
// returns err unchanged. Any other error leaves the snapshot as it was.
func (d *Dashboard) Commit(snap Snapshot, err error) error {
	var re *RefreshError
	switch {
	case err == nil:
		d.Apply(snap)
	case errors.As(err, &re):
		d.snap = re.patch(d.snap)
	}
	return err
}

// refetch rereads the dashboard after a change the backend accepted.
func (d *Dashboard) refetch(ctx context.Context, patch func(Snapshot) Snapshot) (Snapshot, error) {
	snap, err := d.Fetch(ctx)
	if err != nil {
		return Snapshot{}, &RefreshError{Err: err, patch: patch}
	}
	return snap, nil
}

// ToggleRole flips u between admin and user, then rereads the dashboard.
func (d *Dashboard) ToggleRole(ctx context.Context, u model.User) (Snapshot, error) {
	next := u.Role.Toggled()
	if err := d.api.SetUserRole(ctx, u.ID, next); err != nil {
		d.log.Warn("set role failed", zap.String("user", u.ID), zap.Error(err))
		return Snapshot{}, err
	}
	d.log.Info("role changed", zap.String("user", u.ID), zap.String("role", string(next)))
	return d.refetch(ctx, func(s Snapshot) Snapshot {
		users := make([]model.User, len(s.Users))
		copy(users, s.Users)
		for i := range users {
			if users[i].ID == u.ID {
				users[i].Role = next
			}
		}
		s.Users = users
		return recount(s)
	})
}

// DeleteUser removes a user and their feedback, then rereads the dashboard.
func (d *Dashboard) DeleteUser(ctx context.Context, userID string) (Snapshot, error) {
	if err := d.api.DeleteUser(ctx, userID); err != nil {
		d.log.Warn("delete user failed", zap.String("user", userID), zap.Error(err))
		return Snapshot{}, err
	}
	d.log.Info("user deleted", zap.String("user", userID))
	return d.refetch(ctx, func(s Snapshot) Snapshot {
		var email string
		users := make([]model.User, 0, len(s.Users))
		for _, u := range s.Users {
			if u.ID == userID {
				email = u.Email
				continue
			}
			users = append(users, u)
		}
		feedbacks := make([]model.Feedback, 0, len(s.Feedbacks))
		for _, f := range s.Feedbacks {
			if email != "" && f.UserEmail == email {
				continue
			}
			feedbacks = append(feedbacks, f)
		}
		s.Users, s.Feedbacks = users, feedbacks
		return recount(s)
	})
}

func (d *Dashboard) DeleteFeedback(ctx context.Context, feedbackID string) (Snapshot, error) {
	if err := d.api.DeleteFeedback(ctx, feedbackID); err != nil {
		d.log.Warn("delete feedback failed", zap.String("feedback", feedbackID), zap.Error(err))
		return Snapshot{}, err
	}
	return d.refetch(ctx, func(s Snapshot) Snapshot {
		feedbacks := make([]model.Feedback, 0, len(s.Feedbacks))
		for _, f := range s.Feedbacks {
			if f.ID != feedbackID {
				feedbacks = append(feedbacks, f)
			}
		}
		s.Feedbacks = feedbacks
		return recount(s)
	})
}

// recount derives the totals from the lists of a locally patched snapshot.
func recount(s Snapshot) Snapshot {
	s.Stats = model.Stats{TotalUsers: len(s.Users), TotalFeedbacks: len(s.Feedbacks)}
	for _, u := range s.Users {
		if u.Role == model.RoleAdmin {
			s.Stats.TotalAdmins++
		}
	}
	if n := len(s.Feedbacks); n > 0 {
		sum := 0
		for _, f := range s.Feedbacks {
			sum += f.Rating
		}
		s.Stats.AvgRating = float64(sum) / float64(n)
	}
	return s
}
