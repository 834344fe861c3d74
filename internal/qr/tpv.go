// Package qr parses the QR stamp payloads printed on exam pages.
//
// Fixed pages carry a 17-digit TPV code "TTTTTPPPVVVOCCCCC": five digits
// of paper number, three of page number, three of version, one corner
// digit, and a five-digit public code identifying the exam. Extra and
// scrap sheets carry the short markers "plomX<corner>" / "plomS<corner>".
package qr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PageType classifies a decoded QR payload.
type PageType string

const (
	PageTypeFixed PageType = "fixed" // A TPV-stamped fixed page
	PageTypeExtra PageType = "extra" // An extra-sheet marker
	PageTypeScrap PageType = "scrap" // A scrap-paper marker
)

// Corner digits as printed, clockwise from north-east.
const (
	CornerNE = 1
	CornerNW = 2
	CornerSW = 3
	CornerSE = 4
)

const tpvLength = 17

var (
	ErrNotTPV        = errors.New("payload is not a valid TPV code")
	ErrNotPageMarker = errors.New("payload is not an extra/scrap marker")
)

// TPV is a parsed fixed-page QR payload.
type TPV struct {
	PaperNumber int
	PageNumber  int
	Version     int
	Corner      int
	PublicCode  string
}

// ShortCode returns the 11-digit paper/page/version prefix, the part
// that is identical across all four corners of one sheet.
func (t TPV) ShortCode() string {
	return fmt.Sprintf("%05d%03d%03d", t.PaperNumber, t.PageNumber, t.Version)
}

// IsTPV reports whether raw looks like a fixed-page TPV code.
func IsTPV(raw string) bool {
	if len(raw) != tpvLength {
		return false
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ParseTPV parses a 17-digit TPV payload.
func ParseTPV(raw string) (TPV, error) {
	if !IsTPV(raw) {
		return TPV{}, ErrNotTPV
	}
	paper, _ := strconv.Atoi(raw[0:5])
	page, _ := strconv.Atoi(raw[5:8])
	version, _ := strconv.Atoi(raw[8:11])
	corner, _ := strconv.Atoi(raw[11:12])
	if corner < CornerNE || corner > CornerSE {
		return TPV{}, ErrNotTPV
	}
	return TPV{
		PaperNumber: paper,
		PageNumber:  page,
		Version:     version,
		Corner:      corner,
		PublicCode:  raw[12:17],
	}, nil
}

// EncodeTPV renders a TPV back into its 17-digit wire form.
func EncodeTPV(t TPV) string {
	return fmt.Sprintf("%05d%03d%03d%d%s", t.PaperNumber, t.PageNumber, t.Version, t.Corner, t.PublicCode)
}

// IsExtraMarker reports whether raw is an extra-sheet marker.
func IsExtraMarker(raw string) bool {
	return isMarker(raw, "plomX")
}

// IsScrapMarker reports whether raw is a scrap-paper marker.
func IsScrapMarker(raw string) bool {
	return isMarker(raw, "plomS")
}

func isMarker(raw, prefix string) bool {
	if len(raw) != len(prefix)+1 || !strings.HasPrefix(raw, prefix) {
		return false
	}
	d := raw[len(prefix)]
	return d >= '1' && d <= '4'
}

// ParseMarkerCorner extracts the corner digit from an extra/scrap marker.
func ParseMarkerCorner(raw string) (int, error) {
	if !IsExtraMarker(raw) && !IsScrapMarker(raw) {
		return 0, ErrNotPageMarker
	}
	return int(raw[len(raw)-1] - '0'), nil
}

// TypeOf classifies a raw payload without fully parsing it.
func TypeOf(raw string) (PageType, bool) {
	switch {
	case IsTPV(raw):
		return PageTypeFixed, true
	case IsExtraMarker(raw):
		return PageTypeExtra, true
	case IsScrapMarker(raw):
		return PageTypeScrap, true
	default:
		return "", false
	}
}
