package dto

import (
	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound      = "EVENT_NOT_FOUND"
	UserNotFound       = "USER_NOT_FOUND"
	UserDuplicate      = "USER_DUPLICATE"
	InvalidCredentials = "INVALID_CREDENTIALS"
)

type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone" validate:"required,phone"`
	Role     string `json:"role" validate:"required,role"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type CreateEventRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Location string `json:"location" validate:"required,max=255"`
}

type EventResponse struct {
	ID       int64  `json:"event_id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

type EventInfoResponse struct {
	ID           int64  `json:"event_id"`
	Name         string `json:"name"`
	Date         string `json:"date"`
	Location     string `json:"location"`
	Participants int    `json:"participants"`
}

type UpcomingEventResponse struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

type RegisterParticipantRequest struct {
	Username string `json:"username" validate:"required"`
}

type BulkNotifyResponse struct {
	NotificationsSent int `json:"notifications_sent"`
}

// ReminderMessage is the queue payload for one reminder SMS.
type ReminderMessage struct {
	EventID   int    `json:"event_id"`
	EventName string `json:"event_name"`
	Date      string `json:"date"`
	Location  string `json:"location"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func UnauthorizedError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: InvalidCredentials,
			Desc: "Invalid credentials",
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func UserNotFoundError(c *ginext.Context) {
	NotFoundError(c, UserNotFound, "User not found")
}

func UserDuplicateError(c *ginext.Context) {
	BadResponseError(c, UserDuplicate, "Username already exists")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
