package types

import (
	"fmt"
	"net/http"
)

// CustomError is an error with the HTTP status it should be answered with.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func BadRequest(msg string) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Message: msg, Type: "bad_request"}
}

func NotFound(msg string) *CustomError {
	return &CustomError{Code: http.StatusNotFound, Message: msg, Type: "not_found"}
}

func Forbidden(msg string) *CustomError {
	return &CustomError{Code: http.StatusForbidden, Message: msg, Type: "forbidden"}
}
