// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/taibuivan/geohistory/internal/catalog"
)

// # Language

// Language is a UI and narration language.
type Language string

const (
	LanguageItalian Language = "it"
	LanguageEnglish Language = "en"
)

// supported is ordered like the matcher below; Italian is the house default.
var supported = []Language{LanguageItalian, LanguageEnglish}

var matcher = language.NewMatcher([]language.Tag{language.Italian, language.English})

// ParseLanguage resolves "it" or "en".
func ParseLanguage(code string) (Language, bool) {
	for _, candidate := range supported {
		if strings.EqualFold(code, string(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// NegotiateLanguage picks the best supported language for an Accept-Language
// header, or fallback when nothing matches.
func NegotiateLanguage(acceptLanguage string, fallback Language) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}

	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return supported[index]
}

// VoiceTag is the BCP 47 tag of the narration voice.
func (l Language) VoiceTag() language.Tag {
	if l == LanguageEnglish {
		return language.AmericanEnglish
	}
	return language.MustParse("it-IT")
}

// Localized picks the text for l, falling back to the other language and
// then to fallback.
func Localized(l Language, english, italian, fallback string) string {
	first, second := italian, english
	if l == LanguageEnglish {
		first, second = english, italian
	}

	switch {
	case first != "":
		return first
	case second != "":
		return second
	}
	return fallback
}

// phrases holds the few fixed UI strings a session emits.
var phrases = map[string]map[Language]string{
	"filters_hint": {
		LanguageEnglish: "Set one or more filters to load events and start the tour.",
		LanguageItalian: "Imposta uno o più filtri per caricare gli eventi e avviare il tour.",
	},
}

func phrase(key string, l Language) string {
	return phrases[key][l]
}

// # Narration

// Speaker is a speech synthesizer. Implementations must not block.
//
// Speak replaces whatever is being said.
type Speaker interface {
	Supported() bool
	Speak(text string, voice language.Tag)
	Cancel()
	Pause()
	Resume()
}

// NarrationText is what the narrator says for an event: the localized title,
// then the short description (or the long one).
//
// The detail is preferred; the list item stands in when it is missing.
func NarrationText(l Language, item catalog.Event, detail *catalog.EventDetail) string {
	var title, summary string
	if detail != nil {
		title = Localized(l, detail.TitleEN, detail.TitleIT, "")
		english := detail.DescriptionShortEN
		if english == "" {
			english = detail.DescriptionEN
		}
		summary = Localized(l, english, detail.DescriptionIT, "")
	}
	if title == "" {
		title = Localized(l, item.TitleEN, item.TitleIT, "")
	}

	parts := make([]string, 0, 2)
	for _, part := range []string{title, summary} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ". ")
}

// narrationKey identifies one utterance. The same key is never spoken twice.
type narrationKey struct {
	event    cursor
	language Language
	epoch    uint64
}

// NarrationController speaks the current event while the tour plays.
//
// Unsupported speech is a silent no-op; the state only exposes the flag.
type NarrationController struct {
	speaker Speaker
	enabled bool
	spoken  narrationKey
	said    bool
}

// NewNarrationController returns a controller with narration enabled or not.
func NewNarrationController(speaker Speaker, enabled bool) *NarrationController {
	return &NarrationController{speaker: speaker, enabled: enabled}
}

// Supported reports whether the speaker can talk at all.
func (narration *NarrationController) Supported() bool {
	return narration.speaker.Supported()
}

// Enabled reports whether automatic narration is on.
func (narration *NarrationController) Enabled() bool {
	return narration.enabled
}

// SetEnabled switches automatic narration. Switching off silences the speaker.
func (narration *NarrationController) SetEnabled(enabled bool) {
	narration.enabled = enabled
	if !enabled {
		narration.Stop()
	}
}

// narrate speaks text for key unless that exact utterance was already spoken.
func (narration *NarrationController) narrate(key narrationKey, l Language, text string) {
	if !narration.enabled || !narration.Supported() || text == "" {
		return
	}
	if narration.said && narration.spoken == key {
		return
	}
	narration.spoken = key
	narration.said = true
	narration.speaker.Speak(text, l.VoiceTag())
}

// interrupt silences the current utterance ahead of an index change.
func (narration *NarrationController) interrupt() {
	if narration.enabled && narration.Supported() {
		narration.speaker.Cancel()
	}
}

// SpeakNow says text immediately, regardless of playback.
func (narration *NarrationController) SpeakNow(l Language, text string) {
	if narration.Supported() && text != "" {
		narration.speaker.Speak(text, l.VoiceTag())
	}
}

// Pause suspends the current utterance.
func (narration *NarrationController) Pause() {
	if narration.Supported() {
		narration.speaker.Pause()
	}
}

// Resume continues a paused utterance.
func (narration *NarrationController) Resume() {
	if narration.Supported() {
		narration.speaker.Resume()
	}
}

// Stop cancels any utterance.
func (narration *NarrationController) Stop() {
	if narration.Supported() {
		narration.speaker.Cancel()
	}
}
