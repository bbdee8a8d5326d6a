// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/apperr"
	"github.com/taibuivan/geohistory/pkg/pointer"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeRepository serves fixed lists keyed by continent.
//
// Option and detail delays ignore cancellation on purpose: the late answer
// still arrives and the session has to discard it.
type fakeRepository struct {
	mu           sync.Mutex
	events       map[string][]catalog.Event
	countries    map[string][]string
	delays       map[string]time.Duration
	optionDelays map[string]time.Duration
	detailDelays map[string]time.Duration
	missing      map[string]bool
	fail         error
	eventCalls  []catalog.Filters
	optionCalls []catalog.Filters
	detailCalls []string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		events: map[string][]catalog.Event{
			"Europe": {
				{ID: "waterloo", TitleEN: "Battle of Waterloo", EventYear: pointer.To(1815), Country: "Belgium", Position: &catalog.Point{Lat: 50.68, Lon: 4.41}},
				{ID: "rome", TitleEN: "Founding of Rome", YearFrom: pointer.To(-753), Country: "Italy", Position: &catalog.Point{Lat: 41.9, Lon: 12.5}},
				{ID: "athens", TitleEN: "Athenian democracy", YearFrom: pointer.To(-508), Country: "Greece", Position: &catalog.Point{Lat: 37.97, Lon: 23.72}},
			},
			"Asia": {
				{ID: "kyoto", TitleEN: "Heian capital", YearFrom: pointer.To(794), Country: "Japan", Position: &catalog.Point{Lat: 35.01, Lon: 135.76}},
			},
		},
		countries:    map[string][]string{},
		delays:       map[string]time.Duration{},
		optionDelays: map[string]time.Duration{},
		detailDelays: map[string]time.Duration{},
		missing:      map[string]bool{},
	}
}

func (repository *fakeRepository) ListEvents(ctx context.Context, filters catalog.Filters) (*catalog.EventPage, error) {
	repository.mu.Lock()
	repository.eventCalls = append(repository.eventCalls, filters)
	items := repository.events[filters.Continent]
	delay := repository.delays[filters.Continent]
	fail := repository.fail
	repository.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail != nil {
		return nil, fail
	}
	return &catalog.EventPage{Items: items, Total: len(items)}, nil
}

func (repository *fakeRepository) ListOptions(_ context.Context, filters catalog.Filters) (*catalog.Options, error) {
	repository.mu.Lock()
	repository.optionCalls = append(repository.optionCalls, filters)
	countries, custom := repository.countries[filters.Continent]
	delay := repository.optionDelays[filters.Continent]
	repository.mu.Unlock()

	time.Sleep(delay)

	switch {
	case custom:
		return &catalog.Options{Countries: countries}, nil
	case filters.Continent != "":
		return &catalog.Options{Countries: []string{"Italy", "Greece"}}, nil
	}
	return &catalog.Options{Continents: []string{"Europe", "Asia"}}, nil
}

func (repository *fakeRepository) GetEvent(_ context.Context, id string) (*catalog.EventDetail, error) {
	repository.mu.Lock()
	repository.detailCalls = append(repository.detailCalls, id)
	delay := repository.detailDelays[id]
	missing := repository.missing[id]
	repository.mu.Unlock()

	time.Sleep(delay)
	if missing {
		return nil, apperr.NotFound("Event")
	}

	return &catalog.EventDetail{
		Event:         catalog.Event{ID: id, TitleEN: "Event " + id},
		DescriptionEN: "About " + id,
	}, nil
}

func (repository *fakeRepository) setFailure(err error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.fail = err
}

func (repository *fakeRepository) setDelay(continent string, delay time.Duration) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.delays[continent] = delay
}

func (repository *fakeRepository) setCountries(continent string, countries ...string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.countries[continent] = countries
}

func (repository *fakeRepository) setOptionDelay(continent string, delay time.Duration) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.optionDelays[continent] = delay
}

func (repository *fakeRepository) setDetailDelay(id string, delay time.Duration) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.detailDelays[id] = delay
}

func (repository *fakeRepository) setMissing(id string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.missing[id] = true
}

func (repository *fakeRepository) detailCallIDs() []string {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return append([]string(nil), repository.detailCalls...)
}

func (repository *fakeRepository) eventCallCount() int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return len(repository.eventCalls)
}

func (repository *fakeRepository) lastOptionCall() (catalog.Filters, bool) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if len(repository.optionCalls) == 0 {
		return catalog.Filters{}, false
	}
	return repository.optionCalls[len(repository.optionCalls)-1], true
}

// recorder collects renderer commands as short strings.
type recorder struct {
	mu       sync.Mutex
	commands []string
}

func (recorder *recorder) add(command string) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.commands = append(recorder.commands, command)
}

func (recorder *recorder) all() []string {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]string(nil), recorder.commands...)
}

func (recorder *recorder) last() string {
	commands := recorder.all()
	if len(commands) == 0 {
		return ""
	}
	return commands[len(commands)-1]
}

func (recorder *recorder) count(command string) int {
	total := 0
	for _, candidate := range recorder.all() {
		if candidate == command {
			total++
		}
	}
	return total
}

type fakeViewport struct{ recorder }

func (viewport *fakeViewport) FitBounds(_ catalog.Bounds, _ int) {
	viewport.add("fit")
}

func (viewport *fakeViewport) FlyTo(point catalog.Point, zoom float64, _ time.Duration) {
	viewport.add(fmt.Sprintf("fly %.2f,%.2f z%g", point.Lat, point.Lon, zoom))
}

type fakeSpeaker struct {
	recorder
	supported bool
}

func (speaker *fakeSpeaker) Supported() bool { return speaker.supported }

func (speaker *fakeSpeaker) Speak(text string, voice language.Tag) {
	speaker.add("speak " + voice.String() + " " + text)
}

func (speaker *fakeSpeaker) Cancel() { speaker.add("cancel") }
func (speaker *fakeSpeaker) Pause()  { speaker.add("pause") }
func (speaker *fakeSpeaker) Resume() { speaker.add("resume") }

func (speaker *fakeSpeaker) spoken() []string {
	var lines []string
	for _, command := range speaker.all() {
		if len(command) > 6 && command[:6] == "speak " {
			lines = append(lines, command)
		}
	}
	return lines
}
