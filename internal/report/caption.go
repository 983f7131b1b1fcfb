package report

import (
	"fmt"
	"time"
)

// CaptionStyle controls how the sending time is displayed.
//
// HourOffset is added to the hour as is, without wrapping past 23. With the
// default offset of 1 and a UTC clock this reproduces the bot's historical
// "UTC+1" display. Set Zone and an offset of 0 to show true local time instead.
type CaptionStyle struct {
	HourOffset int
	Zone       *time.Location
}

// DefaultCaptionStyle keeps the historical one-hour offset on a UTC clock.
var DefaultCaptionStyle = CaptionStyle{HourOffset: 1}

func (s CaptionStyle) localize(now time.Time) time.Time {
	if s.Zone != nil {
		return now.In(s.Zone)
	}
	return now
}

// Caption formats the message sent alongside the chart, for example:
//
//	It's 10h07, it's 5/03/2024:
//	The current temperature is: 10.00 °C
func Caption(now time.Time, currentTemperature float64, style CaptionStyle) string {
	now = style.localize(now)
	return fmt.Sprintf("It's %dh%02d, it's %d/%02d/%d:\nThe current temperature is: %.2f °C\n",
		now.Hour()+style.HourOffset, now.Minute(),
		now.Day(), int(now.Month()), now.Year(),
		currentTemperature,
	)
}

// sendingHour returns the fractional hour of day used for the chart marker.
func sendingHour(now time.Time, style CaptionStyle) float64 {
	now = style.localize(now)
	return float64(now.Hour()) + float64(now.Minute())/60
}
