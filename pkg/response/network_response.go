// Package response provides the JSON envelope used by every API endpoint:
//
//	{"success": true, "message": "...", "data": ..., "meta": {...}}
//	{"success": false, "message": "...", "error": {"code": "...", "message": "...", "details": {...}}}
package response

import (
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type Meta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit,omitempty"`
	HasMore bool `json:"has_more,omitempty"`
}

func write(c *fiber.Ctx, status int, r Response) error {
	return c.Status(status).JSON(r)
}

func OK(c *fiber.Ctx, data any) error {
	return write(c, fiber.StatusOK, Response{Success: true, Data: data})
}

// OKWithMessage is used for state transitions where the client shows the
// message ("connection accepted").
func OKWithMessage(c *fiber.Ctx, message string, data any) error {
	return write(c, fiber.StatusOK, Response{Success: true, Message: message, Data: data})
}

// List renders items with a total. A nil slice is sent as [] so clients
// never see "data": null. With limit > 0 a full page sets has_more.
func List[T any](c *fiber.Ctx, items []T, limit int) error {
	if items == nil {
		items = []T{}
	}
	meta := &Meta{Total: len(items)}
	if limit > 0 {
		meta.Limit = limit
		meta.HasMore = len(items) == limit
	}
	return write(c, fiber.StatusOK, Response{Success: true, Data: items, Meta: meta})
}

func Created(c *fiber.Ctx, message string, data any) error {
	return write(c, fiber.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func Error(c *fiber.Ctx, status int, code, message string) error {
	return ErrorWithDetails(c, status, code, message, nil)
}

// ErrorWithDetails carries structured details such as the offending field.
func ErrorWithDetails(c *fiber.Ctx, status int, code, message string, details map[string]any) error {
	return write(c, status, Response{
		Success: false,
		Message: message,
		Error:   &ErrorInfo{Code: code, Message: message, Details: details},
	})
}

// Limit reads ?limit= clamped to [1, max]; missing or invalid values use def.
func Limit(c *fiber.Ctx, def, max int) int {
	limit := c.QueryInt("limit", def)
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}
