// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"strings"
	"unicode"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/constants"
)

const untitledEvent = "Untitled event"

// Snapshot is the complete, render-ready view of a session.
type Snapshot struct {
	ID            string          `json:"id"`
	Language      Language        `json:"language"`
	Filters       catalog.Filters `json:"filters"`
	Options       catalog.Options `json:"options"`
	Events        []catalog.Event `json:"events"`
	ResultCount   int             `json:"result_count"`
	Loading       bool            `json:"loading"`
	Error         string          `json:"error,omitempty"`
	Hint          string          `json:"hint,omitempty"`
	Tour          TourState       `json:"tour"`
	Zoom          float64         `json:"zoom"`
	Narration     NarrationState  `json:"narration"`
	Card          *Card           `json:"card,omitempty"`
	Detail        *DetailView     `json:"detail,omitempty"`
	DetailLoading bool            `json:"detail_loading"`
}

// NarrationState exposes the voice flags.
type NarrationState struct {
	Supported bool `json:"supported"`
	Enabled   bool `json:"enabled"`
}

// Card summarizes the current tour stop.
type Card struct {
	Index    int            `json:"index"`
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Years    string         `json:"years,omitempty"`
	Place    string         `json:"place,omitempty"`
	ImageURL string         `json:"image_url,omitempty"`
	Position *catalog.Point `json:"position,omitempty"`
}

// DetailView is the localized panel for the current event's full record.
type DetailView struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Years        string `json:"years,omitempty"`
	Place        string `json:"place,omitempty"`
	Group        string `json:"group,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ExactDate    string `json:"exact_date,omitempty"`
	Preview      string `json:"preview,omitempty"`
	Description  string `json:"description,omitempty"`
	Expandable   bool   `json:"expandable"`
	WikipediaEN  string `json:"wikipedia_en,omitempty"`
	WikipediaIT  string `json:"wikipedia_it,omitempty"`
	WikipediaURL string `json:"wikipedia_url,omitempty"`
}

// NewCard builds the card for the event at index.
func NewCard(l Language, index int, event catalog.Event) *Card {
	fallback := event.Title
	if fallback == "" {
		fallback = untitledEvent
	}

	return &Card{
		Index:    index,
		ID:       event.ID,
		Title:    Localized(l, event.TitleEN, event.TitleIT, fallback),
		Years:    event.YearsLabel(),
		Place:    placeOf(event),
		ImageURL: event.ImageURL,
		Position: event.Position,
	}
}

// NewDetailView builds the detail panel.
//
// The preview is the English short description when reading in English,
// otherwise the full description cut at a word boundary.
func NewDetailView(l Language, detail catalog.EventDetail) *DetailView {
	full := Localized(l, detail.DescriptionEN, detail.DescriptionIT, "")

	preview := ""
	if l == LanguageEnglish {
		preview = detail.DescriptionShortEN
	}
	if preview == "" {
		preview = PreviewText(full, constants.DescriptionPreviewChars)
	}

	return &DetailView{
		ID:           detail.ID,
		Title:        Localized(l, detail.TitleEN, detail.TitleIT, untitledEvent),
		Years:        detail.YearsLabel(),
		Place:        placeOf(detail.Event),
		Group:        Localized(l, detail.GroupEventEN, detail.GroupEventIT, ""),
		ImageURL:     detail.ImageURL,
		ExactDate:    detail.ExactDate,
		Preview:      preview,
		Description:  full,
		Expandable:   full != "" && full != preview,
		WikipediaEN:  detail.WikipediaEN,
		WikipediaIT:  detail.WikipediaIT,
		WikipediaURL: detail.WikipediaURL,
	}
}

// PreviewText shortens text to at most limit characters, dropping a trailing
// partial word. Text within the limit is returned unchanged.
func PreviewText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit])
	if space := strings.LastIndexFunc(cut, unicode.IsSpace); space >= 0 {
		cut = strings.TrimRightFunc(cut[:space], unicode.IsSpace)
	}
	return cut
}

func placeOf(event catalog.Event) string {
	parts := make([]string, 0, 2)
	for _, part := range []string{event.Location, event.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
