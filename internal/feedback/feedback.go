// Package feedback handles the one-time rating and suggestion a user can send.
package feedback

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"itask-cli/internal/api"
)

const (
	ThanksMessage = "Thank you for your feedback!"
	DoneMessage   = "You have already submitted your feedback. Thank you!"
)

var (
	ErrIncomplete       = errors.New("Please fill both suggestion and rating.")
	ErrAlreadySubmitted = errors.New(DoneMessage)
	ErrNotLoggedIn      = errors.New("You must be logged in to submit feedback.")
)

var validate = validator.New()

type API interface {
	UserFeedback(ctx context.Context) (api.FeedbackStatus, error)
	AddFeedback(ctx context.Context, req api.FeedbackRequest) error
}

// Session is the part of the session feedback reads and marks.
type Session interface {
	Authenticated() bool
	FeedbackSubmitted() bool
	MarkFeedback(ctx context.Context, submitted bool) error
}

// Draft is what the user is about to send.
type Draft struct {
	Suggestion string `validate:"required"`
	Rating     int    `validate:"min=1,max=5"`
}

// Check validates d without sending it.
func (d Draft) Check() error {
	d.Suggestion = strings.TrimSpace(d.Suggestion)
	if err := validate.Struct(d); err != nil {
		return ErrIncomplete
	}
	return nil
}

type Service struct {
	api  API
	sess Session
	log  *zap.Logger
}

func New(a API, sess Session, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: a, sess: sess, log: log}
}

// Check asks the backend whether feedback exists and records the answer in
// the session. A failed check counts as not submitted.
func (s *Service) Check(ctx context.Context) (api.FeedbackStatus, error) {
	if !s.sess.Authenticated() {
		return api.FeedbackStatus{}, ErrNotLoggedIn
	}
	st, err := s.api.UserFeedback(ctx)
	if err != nil {
		s.log.Warn("check feedback failed", zap.Error(err))
		if merr := s.sess.MarkFeedback(ctx, false); merr != nil {
			s.log.Warn("persist feedback flag failed", zap.Error(merr))
		}
		return api.FeedbackStatus{}, err
	}
	if err := s.sess.MarkFeedback(ctx, st.HasFeedback); err != nil {
		return st, err
	}
	return st, nil
}

// Submit sends d once with the suggestion trimmed. It refuses when the
// session already holds feedback.
func (s *Service) Submit(ctx context.Context, d Draft) error {
	d.Suggestion = strings.TrimSpace(d.Suggestion)
	if err := d.Check(); err != nil {
		return err
	}
	if !s.sess.Authenticated() {
		return ErrNotLoggedIn
	}
	if s.sess.FeedbackSubmitted() {
		return ErrAlreadySubmitted
	}
	if err := s.api.AddFeedback(ctx, api.FeedbackRequest{Suggestion: d.Suggestion, Rating: d.Rating}); err != nil {
		s.log.Warn("submit feedback failed", zap.Error(err))
		return err
	}
	return s.sess.MarkFeedback(ctx, true)
}

// ErrorMessage is the text shown for a failed Submit.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrIncomplete), errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrNotLoggedIn):
		return err.Error()
	default:
		return api.ServerMessage(err, "Failed to submit feedback.")
	}
}
