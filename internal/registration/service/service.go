package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"regdesk/internal/registration/metrics"
	"regdesk/internal/registration/models"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/sentinel"
	"regdesk/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks DraftStore,SubmissionLedger,Notifier

// DraftStore persists the single in-progress draft of a device.
type DraftStore interface {
	Save(ctx context.Context, deviceID string, draft models.FormDraft) error
	Load(ctx context.Context, deviceID string) (models.FormDraft, error)
	Clear(ctx context.Context, deviceID string) error
}

// SubmissionLedger is the append-only record of accepted submissions of a device.
type SubmissionLedger interface {
	Load(ctx context.Context, deviceID string) (models.Ledger, error)
	Append(ctx context.Context, deviceID string, submission models.Submission) error
}

// Notifier forwards an accepted submission to the remote endpoint.
type Notifier interface {
	Send(ctx context.Context, submission models.Submission) error
}

// FormView is the restored form shown on page load.
type FormView struct {
	State    models.State     `json:"state"`
	Controls []models.Control `json:"controls"`
}

// Service is the form controller. It owns the submission lifecycle of every
// device's form: autosave, restore, submit and reset.
type Service struct {
	drafts   DraftStore
	ledger   SubmissionLedger
	notifier Notifier

	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	confirmationPath string

	locks deviceLocks
}

func New(drafts DraftStore, ledger SubmissionLedger, notifier Notifier, opts ...Option) *Service {
	cfg := &serviceConfig{confirmationPath: DefaultConfirmationPath}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer("regdesk/registration")
	}
	return &Service{
		drafts:           drafts,
		ledger:           ledger,
		notifier:         notifier,
		logger:           cfg.logger,
		metrics:          cfg.metrics,
		tracer:           cfg.tracer,
		confirmationPath: cfg.confirmationPath,
	}
}

// SaveInput autosaves the current field values. Every input event overwrites
// the stored draft; there is no debouncing.
func (s *Service) SaveInput(ctx context.Context, deviceID string, fields map[string]any) error {
	if err := requireDevice(deviceID); err != nil {
		return err
	}
	draft := models.NormalizeDraft(fields)
	return s.locks.run(ctx, deviceID, func() error {
		if err := s.drafts.Save(ctx, deviceID, draft); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
		}
		s.incrementDraftSave()
		return nil
	})
}

// Restore starts a new page instance in the idle state and returns every
// control populated from the stored draft, if any. A missing or unreadable
// draft restores an empty form.
func (s *Service) Restore(ctx context.Context, deviceID string) (*FormView, error) {
	if err := requireDevice(deviceID); err != nil {
		return nil, err
	}
	var view *FormView
	err := s.locks.run(ctx, deviceID, func() error {
		draft, err := s.loadDraft(ctx, deviceID)
		if err != nil {
			return err
		}
		view = &FormView{State: models.StateIdle, Controls: models.RestoreControls(draft)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Submit validates req, rejects duplicates, records the submission locally,
// dispatches it once and clears the draft.
//
// Returned errors are infrastructure failures only; validation failures and
// duplicates are reported through SubmitResult.
func (s *Service) Submit(ctx context.Context, deviceID string, req models.SubmitRequest) (*models.SubmitResult, error) {
	if err := requireDevice(deviceID); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "registration.Submit")
	defer span.End()
	start := time.Now()

	var result *models.SubmitResult
	err := s.locks.run(ctx, deviceID, func() error {
		var err error
		result, err = s.submit(ctx, deviceID, req)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("registration.outcome", string(result.Outcome)))
	s.observeSubmit(result.Outcome, start)
	return result, nil
}

func (s *Service) submit(ctx context.Context, deviceID string, req models.SubmitRequest) (*models.SubmitResult, error) {
	req.Normalize()
	if errs := req.Validate(); !errs.Empty() {
		return &models.SubmitResult{
			State:   models.StateRejected,
			Outcome: models.OutcomeInvalid,
			Errors:  errs,
		}, nil
	}

	ledger, err := s.loadLedger(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if ledger.HasConflict(req.Email, req.BitsID) {
		s.logger.InfoContext(ctx, "duplicate registration blocked",
			"request_id", requestcontext.RequestID(ctx),
			"device_id", deviceID,
		)
		return &models.SubmitResult{
			State:   models.StateRejected,
			Outcome: models.OutcomeDuplicate,
			Notice:  models.DuplicateNotice,
		}, nil
	}

	submission := req.Submission()
	// The local record is durable before any network activity.
	if err := s.ledger.Append(ctx, deviceID, submission); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "submission store busy, try again")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record submission")
	}

	if err := s.notifier.Send(ctx, submission); err != nil {
		s.incrementNotifyFailure()
		s.logger.WarnContext(ctx, "error submitting form",
			"request_id", requestcontext.RequestID(ctx),
			"device_id", deviceID,
			"error", err.Error(),
		)
	}

	// The submission is recorded; clear the draft even if the caller has gone.
	if err := s.drafts.Clear(context.WithoutCancel(ctx), deviceID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear draft after submission",
			"request_id", requestcontext.RequestID(ctx),
			"device_id", deviceID,
			"error", err.Error(),
		)
	}

	return &models.SubmitResult{
		State:    models.StateAccepted,
		Outcome:  models.OutcomeAccepted,
		Redirect: s.confirmationPath,
	}, nil
}

// Reset clears the draft and any displayed errors. The ledger is untouched.
// Resetting without a stored draft is a no-op.
func (s *Service) Reset(ctx context.Context, deviceID string) error {
	if err := requireDevice(deviceID); err != nil {
		return err
	}
	return s.locks.run(ctx, deviceID, func() error {
		if err := s.drafts.Clear(ctx, deviceID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear draft")
		}
		if s.metrics != nil {
			s.metrics.IncrementDraftReset()
		}
		return nil
	})
}

// loadDraft returns nil for a missing or corrupt draft.
func (s *Service) loadDraft(ctx context.Context, deviceID string) (models.FormDraft, error) {
	draft, err := s.drafts.Load(ctx, deviceID)
	switch {
	case err == nil:
		return draft, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, nil
	case errors.Is(err, sentinel.ErrCorrupt):
		s.logger.WarnContext(ctx, "ignoring unreadable draft",
			"request_id", requestcontext.RequestID(ctx),
			"device_id", deviceID,
			"error", err.Error(),
		)
		return nil, nil
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draft")
	}
}

// loadLedger returns an empty ledger for a corrupt stored ledger.
func (s *Service) loadLedger(ctx context.Context, deviceID string) (models.Ledger, error) {
	ledger, err := s.ledger.Load(ctx, deviceID)
	switch {
	case err == nil:
		return ledger, nil
	case errors.Is(err, sentinel.ErrCorrupt):
		s.logger.WarnContext(ctx, "ignoring unreadable submission ledger",
			"request_id", requestcontext.RequestID(ctx),
			"device_id", deviceID,
			"error", err.Error(),
		)
		return models.Ledger{}, nil
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submissions")
	}
}

func requireDevice(deviceID string) error {
	if deviceID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "device id is required")
	}
	return nil
}

func (s *Service) incrementDraftSave() {
	if s.metrics != nil {
		s.metrics.IncrementDraftSave()
	}
}

func (s *Service) incrementNotifyFailure() {
	if s.metrics != nil {
		s.metrics.IncrementNotifyFailure()
	}
}

func (s *Service) observeSubmit(outcome models.Outcome, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementSubmission(string(outcome))
	s.metrics.ObserveSubmit(start)
}
