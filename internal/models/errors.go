package models

import (
	"context"
	"errors"
)

var (
	ErrDataUnavailable = errors.New("no data available for this match")
	ErrDataProvider    = errors.New("match data provider is unavailable")
	ErrGeneration      = errors.New("language model failed to answer")
	ErrSearch          = errors.New("web search failed")
	ErrConfiguration   = errors.New("required credential is not configured")

	ErrEmptyQuestion   = errors.New("question is empty")
	ErrNoMatchSelected = errors.New("no match selected")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionChanged  = errors.New("session was reset while answering")
	ErrInvalidArgument = errors.New("invalid argument")
)

type ErrorKind string

const (
	KindDataUnavailable ErrorKind = "data_unavailable"
	KindDataProvider    ErrorKind = "data_provider_error"
	KindGeneration      ErrorKind = "generation_error"
	KindSearch          ErrorKind = "search_error"
	KindConfiguration   ErrorKind = "configuration_error"
	KindInvalidRequest  ErrorKind = "invalid_request"
	KindCanceled        ErrorKind = "canceled"
	KindInternal        ErrorKind = "internal"
)

// KindOf classifies err for the display layer.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrDataUnavailable):
		return KindDataUnavailable
	case errors.Is(err, ErrDataProvider):
		return KindDataProvider
	case errors.Is(err, ErrGeneration):
		return KindGeneration
	case errors.Is(err, ErrSearch):
		return KindSearch
	case errors.Is(err, ErrEmptyQuestion), errors.Is(err, ErrNoMatchSelected),
		errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionChanged),
		errors.Is(err, ErrInvalidArgument):
		return KindInvalidRequest
	case errors.Is(err, context.DeadlineExceeded):
		// A deadline wrapped in one of the kinds above keeps that kind.
		return KindCanceled
	default:
		return KindInternal
	}
}

// UserMessage returns a message suitable for showing in a chat transcript.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindDataUnavailable:
		return "There is no event data for this match. Try picking another one."
	case KindDataProvider:
		return "The match data provider is not responding. Please retry later."
	case KindGeneration:
		return "The assistant could not answer right now. Please retry."
	case KindConfiguration:
		return "The assistant is not configured: " + err.Error()
	case KindCanceled:
		if errors.Is(err, context.DeadlineExceeded) {
			return "The request took too long. Please retry."
		}
		return ""
	case KindInvalidRequest:
		switch {
		case errors.Is(err, ErrEmptyQuestion):
			return "Please provide a question to ask."
		case errors.Is(err, ErrNoMatchSelected):
			return "Select a match first."
		case errors.Is(err, ErrSessionChanged):
			return "The chat was cleared while answering. Ask again."
		}
		return err.Error()
	default:
		return "Something went wrong."
	}
}
