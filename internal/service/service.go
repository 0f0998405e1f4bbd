package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"golang.org/x/crypto/bcrypt"

	"campusevents/internal/dto"
	"campusevents/internal/model"
	"campusevents/internal/repo"
	"campusevents/internal/scheduler"
	"campusevents/pkg/validator"
)

type Service interface {
	RegisterUser(ctx *ginext.Context)
	Login(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	GetAllEvents(ctx *ginext.Context)
	UpcomingEvents(ctx *ginext.Context)
	RegisterForEvent(ctx *ginext.Context)
	BulkNotify(ctx *ginext.Context)
}

// Publisher is the slice of the rabbit client the service needs.
type Publisher interface {
	Publish(message []byte) error
}

type service struct {
	repo       repo.Repository
	log        *zerolog.Logger
	pub        Publisher
	bulkWindow time.Duration
}

func NewService(repository repo.Repository, logger *zerolog.Logger, pub Publisher, bulkWindow time.Duration) Service {
	if bulkWindow <= 0 {
		bulkWindow = 24 * time.Hour
	}
	return &service{
		repo:       repository,
		log:        logger,
		pub:        pub,
		bulkWindow: bulkWindow,
	}
}

func (s *service) RegisterUser(ctx *ginext.Context) {
	var req dto.RegisterUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse register request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Error().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(ctx)
		return
	}

	user := &model.User{
		Username: req.Username,
		Password: string(hash),
		Role:     req.Role,
		Phone:    req.Phone,
	}

	if err := s.repo.CreateUser(ctx.Request.Context(), user); err != nil {
		if errors.Is(err, repo.ErrUserExists) {
			dto.UserDuplicateError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to create user in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("username", user.Username).Str("role", user.Role).Msg("user registered")

	dto.SuccessCreatedResponse(ctx, dto.UserResponse{
		Username: user.Username,
		Role:     user.Role,
		Phone:    user.Phone,
	})
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.repo.GetUserByUsername(ctx.Request.Context(), req.Username)
	if err != nil {
		dto.UnauthorizedError(ctx)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		dto.UnauthorizedError(ctx)
		return
	}

	s.log.Info().Str("username", user.Username).Msg("user logged in")

	dto.SuccessResponse(ctx, dto.UserResponse{
		Username: user.Username,
		Role:     user.Role,
		Phone:    user.Phone,
	})
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Error().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event := &model.Event{
		Name:     req.Name,
		Date:     req.Date + " " + req.Time,
		Location: req.Location,
	}

	id, err := s.repo.CreateEvent(ctx.Request.Context(), event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", id).Msg("event created successfully")

	dto.SuccessCreatedResponse(ctx, dto.EventResponse{
		ID:       id,
		Name:     event.Name,
		Date:     event.Date,
		Location: event.Location,
	})
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	if err := s.repo.DeleteEventTx(ctx.Request.Context(), eventID); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to delete event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", eventID).Msg("event deleted with its registrations")
	dto.SuccessResponse(ctx, nil)
}

func (s *service) GetAllEvents(ctx *ginext.Context) {
	events, err := s.repo.GetAllEvents(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get events")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.EventInfoResponse, 0, len(events))
	for _, e := range events {
		count, err := s.repo.CountParticipants(ctx.Request.Context(), int64(e.ID))
		if err != nil {
			s.log.Error().Err(err).Msg("failed to count participants for event")
			continue
		}
		resp = append(resp, dto.EventInfoResponse{
			ID:           int64(e.ID),
			Name:         e.Name,
			Date:         e.Date,
			Location:     e.Location,
			Participants: count,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) UpcomingEvents(ctx *ginext.Context) {
	username := ctx.Param("username")

	if _, err := s.repo.GetUserByUsername(ctx.Request.Context(), username); err != nil {
		dto.UserNotFoundError(ctx)
		return
	}

	upcoming, err := s.repo.UpcomingForParticipant(ctx.Request.Context(), username)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get upcoming events")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.UpcomingEventResponse, 0, len(upcoming))
	for _, u := range upcoming {
		resp = append(resp, dto.UpcomingEventResponse{
			Name:     u.Name,
			Date:     u.Date,
			Location: u.Location,
			Status:   u.Status,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) RegisterForEvent(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.RegisterParticipantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if err := s.repo.RegisterParticipant(ctx.Request.Context(), eventID, req.Username); err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.EventNotFoundError(ctx)
		case errors.Is(err, repo.ErrUserNotFound):
			dto.UserNotFoundError(ctx)
		default:
			s.log.Error().Err(err).Msg("failed to register participant")
			dto.InternalServerError(ctx)
		}
		return
	}

	s.log.Info().
		Int64("event_id", eventID).
		Str("username", req.Username).
		Msg("participant registered")

	dto.SuccessCreatedResponse(ctx, dto.RegisterParticipantRequest{Username: req.Username})
}

// BulkNotify scans every registered participant and queues one reminder SMS
// for each whose event starts within the bulk window. It shares the window
// filter with the background scheduler; only the window size differs.
func (s *service) BulkNotify(ctx *ginext.Context) {
	now := time.Now()

	rows, err := s.repo.ParticipantsWithPhoneForWindow(ctx.Request.Context(), now, now.Add(s.bulkWindow))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to query participants for bulk notify")
		dto.InternalServerError(ctx)
		return
	}

	sent := 0
	for _, row := range scheduler.Due(rows, now, s.bulkWindow) {
		msg := dto.ReminderMessage{
			EventID:   row.EventID,
			EventName: row.EventName,
			Date:      row.Date,
			Location:  row.Location,
			Username:  row.Username,
			Phone:     row.Phone,
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to marshal reminder message")
			continue
		}
		if err := s.pub.Publish(payload); err != nil {
			s.log.Error().Err(err).
				Str("username", row.Username).
				Msg("failed to publish reminder message")
			continue
		}
		sent++
	}

	s.log.Info().Int("notifications_sent", sent).Msg("bulk notification pass finished")

	dto.SuccessResponse(ctx, dto.BulkNotifyResponse{NotificationsSent: sent})
}
