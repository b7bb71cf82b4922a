// Package calendar builds external calendar links for competitions.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/swimref/roster/internal/application"
)

const googleCalendarBase = "https://www.google.com/calendar/render?action=TEMPLATE"

// DefaultQRSize is the PNG edge length used when callers pass zero.
const DefaultQRSize = 256

// GoogleCalendarURL returns a Google Calendar "create event" link for an
// all-day event covering the competition day.
func GoogleCalendarURL(c application.Competition) string {
	y, m, d := c.Date.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	dates := start.Format("20060102") + "/" + end.Format("20060102")
	details := c.Description + "\n\nLocal: " + c.Location

	return fmt.Sprintf("%s&text=%s&dates=%s&details=%s&location=%s",
		googleCalendarBase,
		encodeComponent(c.Name),
		dates,
		encodeComponent(details),
		encodeComponent(c.Location),
	)
}

// encodeComponent percent-encodes s like a URI component: spaces become %20
// rather than "+".
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// QRCode renders content as a PNG QR code of size x size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
