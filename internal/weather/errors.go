package weather

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySeries     = errors.New("hourly series is empty")
	ErrSeriesMismatch  = errors.New("hourly series lengths differ")
	ErrIrregularSeries = errors.New("hourly timestamps are not evenly spaced")
	ErrMissingValue    = errors.New("forecast value is missing")
	ErrChannelNotFound = errors.New("destination channel not found")

	// ErrPipelineBusy is returned when a fire is requested while another one
	// is still running.
	ErrPipelineBusy = errors.New("a forecast report is already being sent")
)

// ProviderError reports a failed or malformed call to the weather provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RenderError reports a forecast that cannot be turned into a report.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render report: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DeliveryError reports a report that could not be posted to the chat channel.
type DeliveryError struct {
	ChannelID string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to channel %s: %v", e.ChannelID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
