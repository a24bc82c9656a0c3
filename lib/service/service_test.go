// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/tabmesh/tabmesh/lib/clock"
	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/registry"
	"github.com/tabmesh/tabmesh/lib/schema"
	"github.com/tabmesh/tabmesh/lib/sequence"
	"github.com/tabmesh/tabmesh/lib/store"
	"github.com/tabmesh/tabmesh/lib/syncbridge"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
	"github.com/tabmesh/tabmesh/lib/testutil"
)

var testBase = time.Date(2026, time.April, 2, 11, 0, 0, 0, time.UTC)

var testDevice = ref.NewCacheGUID("device-under-test")

type putCall struct {
	key           string
	collaboration ref.CollaborationID
}

type fakeProcessor struct {
	puts    []putCall
	deletes []string
}

func (p *fakeProcessor) Put(storageKey string, _ schema.Entity, collaboration ref.CollaborationID) {
	p.puts = append(p.puts, putCall{storageKey, collaboration})
}

func (p *fakeProcessor) Delete(storageKey string) {
	p.deletes = append(p.deletes, storageKey)
}

func (p *fakeProcessor) IsTrackingMetadata() bool { return true }

// recordingUI captures service notifications as compact event strings.
type recordingUI struct {
	ready  chan struct{}
	events []string
	last   tabgroup.Group
}

func newRecordingUI() *recordingUI {
	return &recordingUI{ready: make(chan struct{})}
}

func (u *recordingUI) Initialized() {
	u.events = append(u.events, "init")
	select {
	case <-u.ready:
	default:
		close(u.ready)
	}
}

func (u *recordingUI) TabGroupAdded(group tabgroup.Group, origin registry.Origin) {
	u.events = append(u.events, fmt.Sprintf("added %s %s", group.Title, origin))
	u.last = group
}

func (u *recordingUI) TabGroupUpdated(group tabgroup.Group, origin registry.Origin) {
	u.events = append(u.events, fmt.Sprintf("updated %s %s", group.Title, origin))
	u.last = group
}

func (u *recordingUI) TabGroupRemoved(removed tabgroup.Group, origin registry.Origin) {
	u.events = append(u.events, fmt.Sprintf("removed %s %s", removed.Title, origin))
	u.last = removed
}

type harness struct {
	registry     *registry.Registry
	service      *Service
	private      *syncbridge.Bridge
	shared       *syncbridge.Bridge
	privateProc  *fakeProcessor
	sharedProc   *fakeProcessor
	privateStore *store.Store
	loop         *sequence.Loop
	clock        *clock.FakeClock
}

func openTestStore(t *testing.T, name string) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), name)})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("store.Close: %v", err)
		}
	})
	return s
}

func newHarness(t *testing.T, withShared bool) *harness {
	t.Helper()
	fake := clock.Fake(testBase)
	h := &harness{
		registry:     registry.New(registry.Config{Clock: fake}),
		privateProc:  &fakeProcessor{},
		sharedProc:   &fakeProcessor{},
		privateStore: openTestStore(t, "private.db"),
		loop:         sequence.NewLoop(nil),
		clock:        fake,
	}
	t.Cleanup(h.loop.Stop)
	h.private = syncbridge.NewPrivateBridge(syncbridge.Config{
		Registry:  h.registry,
		Store:     h.privateStore,
		Processor: h.privateProc,
		Runner:    h.loop,
	})
	if withShared {
		h.shared = syncbridge.NewSharedBridge(syncbridge.Config{
			Registry:  h.registry,
			Store:     openTestStore(t, "shared.db"),
			Processor: h.sharedProc,
			Runner:    h.loop,
		})
	}
	mediator := syncbridge.NewMediator(syncbridge.MediatorConfig{
		Registry: h.registry,
		Private:  h.private,
		Shared:   h.shared,
	})
	h.service = New(Config{
		Registry:   h.registry,
		Mediator:   mediator,
		Clock:      h.clock,
		DeviceGUID: testDevice,
	})
	return h
}

// start runs initialization to completion with ui observing.
func (h *harness) start(t *testing.T, ui *recordingUI) {
	t.Helper()
	h.service.AddObserver(ui)
	h.service.Start(context.Background())
	testutil.RequireClosed(t, ui.ready, 5*time.Second, "service initialization")
}

func remoteGroupChange(id ref.GroupID, title string) syncbridge.EntityChange {
	return syncbridge.EntityChange{
		Type: syncbridge.ChangeAdd,
		Entity: schema.Entity{
			GUID:           id.String(),
			CreationTimeUS: schema.TimeToMicros(testBase),
			UpdateTimeUS:   schema.TimeToMicros(testBase),
			Group:          &schema.GroupPayload{Title: title, Color: uint8(tabgroup.ColorCyan)},
		},
	}
}

func remoteTabChange(id ref.TabID, owner ref.GroupID, url string) syncbridge.EntityChange {
	position := 0
	return syncbridge.EntityChange{
		Type: syncbridge.ChangeAdd,
		Entity: schema.Entity{
			GUID:           id.String(),
			CreationTimeUS: schema.TimeToMicros(testBase),
			UpdateTimeUS:   schema.TimeToMicros(testBase),
			Tab: &schema.TabPayload{
				URL:             url,
				OwningGroupGUID: owner.String(),
				Position:        &position,
			},
		},
	}
}

func TestObserversSilentUntilInitialized(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.service.AddObserver(ui)
	if len(ui.events) != 0 {
		t.Fatalf("events before Start: %v", ui.events)
	}

	h.service.Start(context.Background())
	testutil.RequireClosed(t, ui.ready, 5*time.Second, "service initialization")
	if len(ui.events) != 1 || ui.events[0] != "init" {
		t.Fatalf("events after init = %v, want [init]", ui.events)
	}

	// A late observer is brought up to date immediately.
	late := newRecordingUI()
	h.service.AddObserver(late)
	if len(late.events) != 1 || late.events[0] != "init" {
		t.Errorf("late observer events = %v, want [init]", late.events)
	}
}

func TestPreInitNotificationsDeliverAfterInitialized(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.service.AddObserver(ui)

	// A remote group lands before the stores finish loading. The UI
	// must hear about it, but only after Initialized.
	groupID := ref.NewGroupID()
	tabID := ref.NewTabID()
	if err := h.private.ApplyIncrementalSyncChanges(context.Background(), []syncbridge.EntityChange{
		remoteGroupChange(groupID, "early bird"),
		remoteTabChange(tabID, groupID, "https://early.example"),
	}); err != nil {
		t.Fatalf("ApplyIncrementalSyncChanges: %v", err)
	}
	if len(ui.events) != 0 {
		t.Fatalf("notification escaped before init: %v", ui.events)
	}

	h.service.Start(context.Background())
	testutil.RequireClosed(t, ui.ready, 5*time.Second, "service initialization")
	if len(ui.events) < 2 || ui.events[0] != "init" {
		t.Fatalf("events = %v, want init first then the buffered add", ui.events)
	}
	if ui.events[1] != "added early bird remote" {
		t.Errorf("events[1] = %q, want the buffered group add", ui.events[1])
	}
}

func TestAddGroupStampsIdentityAndAttribution(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.start(t, ui)

	created := h.service.AddGroup(tabgroup.Group{
		Title: "  reading \t list ",
		Color: tabgroup.ColorYellow,
		Tabs:  []tabgroup.Tab{{URL: "https://book.example"}},
	})
	if created.ID.IsZero() {
		t.Fatal("AddGroup did not assign a group ID")
	}
	if created.Title != "reading list" {
		t.Errorf("title = %q, want sanitized %q", created.Title, "reading list")
	}
	if created.Creator != testDevice || created.LastUpdater != testDevice {
		t.Errorf("attribution = %s/%s, want this device", created.Creator, created.LastUpdater)
	}
	if !created.CreationTime.Equal(testBase) {
		t.Errorf("creation time = %v, want clock time", created.CreationTime)
	}
	if len(created.Tabs) != 1 || created.Tabs[0].ID.IsZero() {
		t.Fatalf("tab identity not assigned: %+v", created.Tabs)
	}
	if created.Tabs[0].GroupID != created.ID {
		t.Error("tab not linked to its group")
	}

	if got := ui.events[len(ui.events)-1]; got != "added reading list local" {
		t.Errorf("last event = %q", got)
	}
	if len(h.privateProc.puts) != 2 {
		t.Errorf("transport received %d puts, want group+tab", len(h.privateProc.puts))
	}
}

func TestEmptyRemoteGroupHeldBackUntilFirstTab(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.start(t, ui)

	groupID := ref.NewGroupID()
	if err := h.private.ApplyIncrementalSyncChanges(context.Background(), []syncbridge.EntityChange{
		remoteGroupChange(groupID, "empty so far"),
	}); err != nil {
		t.Fatalf("ApplyIncrementalSyncChanges: %v", err)
	}
	if len(ui.events) != 1 {
		t.Fatalf("empty remote group leaked to the UI: %v", ui.events)
	}
	if _, found := h.service.GetGroup(groupID); found {
		t.Error("GetGroup returned a held-back group")
	}
	if groups := h.service.GetAllGroups(); len(groups) != 0 {
		t.Errorf("GetAllGroups = %d groups, want 0", len(groups))
	}

	if err := h.private.ApplyIncrementalSyncChanges(context.Background(), []syncbridge.EntityChange{
		remoteTabChange(ref.NewTabID(), groupID, "https://first.example"),
	}); err != nil {
		t.Fatalf("ApplyIncrementalSyncChanges: %v", err)
	}
	if got := ui.events[len(ui.events)-1]; got != "added empty so far remote" {
		t.Fatalf("first tab surfaced as %q, want an add", got)
	}
	if len(ui.last.Tabs) != 1 {
		t.Errorf("surfaced group has %d tabs, want 1", len(ui.last.Tabs))
	}
	if _, found := h.service.GetGroup(groupID); !found {
		t.Error("group still hidden after gaining content")
	}
}

func TestEmptyLocalGroupHeldBackUntilFirstTab(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.start(t, ui)

	created := h.service.AddGroup(tabgroup.Group{Title: "empty start"})
	if len(ui.events) != 1 {
		t.Fatalf("empty local group leaked to the UI: %v", ui.events)
	}
	if _, found := h.service.GetGroup(created.ID); found {
		t.Error("GetGroup returned a held-back group")
	}
	// The hold-back is UI-only: the group still persisted and synced.
	if len(h.privateProc.puts) != 1 {
		t.Errorf("transport received %d puts, want the group entity", len(h.privateProc.puts))
	}

	h.service.AddTab(created.ID, tabgroup.Tab{URL: "https://first.example", Position: -1})
	if got := ui.events[len(ui.events)-1]; got != "added empty start local" {
		t.Fatalf("first tab surfaced as %q, want an add", got)
	}
	if len(ui.events) != 2 {
		t.Errorf("events = %v, want init plus exactly one add", ui.events)
	}
	if _, found := h.service.GetGroup(created.ID); !found {
		t.Error("group still hidden after gaining content")
	}
}

func TestHeldBackGroupRemovedSilently(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.start(t, ui)

	groupID := ref.NewGroupID()
	ctx := context.Background()
	if err := h.private.ApplyIncrementalSyncChanges(ctx, []syncbridge.EntityChange{
		remoteGroupChange(groupID, "never seen"),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.private.ApplyIncrementalSyncChanges(ctx, []syncbridge.EntityChange{
		{Type: syncbridge.ChangeDelete, StorageKey: groupID.String()},
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(ui.events) != 1 {
		t.Errorf("events = %v, want only init for a group the UI never saw", ui.events)
	}
}

func TestRemovingLastTabLocallyRemovesGroup(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.start(t, ui)

	created := h.service.AddGroup(tabgroup.Group{
		Title: "short lived",
		Tabs:  []tabgroup.Tab{{URL: "https://only.example"}},
	})
	h.service.RemoveTab(created.ID, created.Tabs[0].ID)

	if h.registry.Len() != 0 {
		t.Error("group survived removal of its last tab")
	}
	if got := ui.events[len(ui.events)-1]; got != "removed short lived local" {
		t.Errorf("last event = %q, want the group removal", got)
	}
	tombstones := map[string]bool{}
	for _, key := range h.privateProc.deletes {
		tombstones[key] = true
	}
	if !tombstones[created.ID.String()] || !tombstones[created.Tabs[0].ID.String()] {
		t.Errorf("transport deletes = %v, want tab and group", h.privateProc.deletes)
	}
}

func TestUpdateVisualDataStampsUpdater(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.start(t, ui)

	created := h.service.AddGroup(tabgroup.Group{
		Title: "old name",
		Tabs:  []tabgroup.Tab{{URL: "https://page.example"}},
	})
	h.clock.Advance(time.Minute)
	h.service.UpdateVisualData(created.ID, " new\tname ", tabgroup.ColorPink)

	group, found := h.registry.Get(created.ID)
	if !found {
		t.Fatal("group vanished")
	}
	if group.Title != "new name" {
		t.Errorf("title = %q, want sanitized %q", group.Title, "new name")
	}
	if group.Color != tabgroup.ColorPink {
		t.Errorf("color = %v, want pink", group.Color)
	}
	if group.LastUpdater != testDevice {
		t.Errorf("last updater = %s, want this device", group.LastUpdater)
	}
}

func TestTabTitlesAreSanitized(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.start(t, ui)

	created := h.service.AddGroup(tabgroup.Group{
		Title: "clean",
		Tabs:  []tabgroup.Tab{{URL: "https://a.example", Title: "  first\ttab "}},
	})
	if created.Tabs[0].Title != "first tab" {
		t.Errorf("template tab title = %q, want sanitized %q", created.Tabs[0].Title, "first tab")
	}

	added := h.service.AddTab(created.ID, tabgroup.Tab{
		URL:      "https://b.example",
		Title:    "second\x00 tab",
		Position: -1,
	})
	if added.Title != "second tab" {
		t.Errorf("added tab title = %q, want sanitized %q", added.Title, "second tab")
	}

	h.service.UpdateTab(created.ID, added.ID, "https://b.example/v2", " renamed\n tab ")
	group, _ := h.registry.Get(created.ID)
	tab := group.TabByID(added.ID)
	if tab == nil || tab.Title != "renamed tab" {
		t.Errorf("updated tab = %+v, want title %q", tab, "renamed tab")
	}
}

func TestMakeTabGroupSharedRecreatesUnderFreshIdentity(t *testing.T) {
	h := newHarness(t, true)
	ui := newRecordingUI()
	h.start(t, ui)

	created := h.service.AddGroup(tabgroup.Group{
		Title: "trip planning",
		Tabs: []tabgroup.Tab{
			{URL: "https://flights.example"},
			{URL: "https://hotels.example"},
		},
	})
	h.service.OnTabGroupOpened(created.ID, 5)
	h.privateProc.puts = nil

	collaboration := ref.MustParseCollaborationID("collab/trip")
	shared, ok := h.service.MakeTabGroupShared(5, collaboration)
	if !ok {
		t.Fatal("MakeTabGroupShared failed")
	}
	if shared.ID == created.ID {
		t.Error("shared group reused the saved group's identity")
	}
	if shared.Collaboration != collaboration {
		t.Errorf("collaboration = %q, want %q", shared.Collaboration, collaboration)
	}
	if shared.LocalID != 5 {
		t.Errorf("tab-strip correlation lost, local ID = %v", shared.LocalID)
	}
	if len(shared.Tabs) != 2 {
		t.Fatalf("shared group has %d tabs, want 2", len(shared.Tabs))
	}
	for i, tab := range shared.Tabs {
		if tab.ID == created.Tabs[i].ID {
			t.Error("shared tab reused a saved tab's identity")
		}
		if tab.URL != created.Tabs[i].URL {
			t.Errorf("tab %d URL = %q, want %q", i, tab.URL, created.Tabs[i].URL)
		}
	}

	if _, found := h.registry.Get(created.ID); found {
		t.Error("saved group still present after sharing")
	}
	tombstoned := map[string]bool{}
	for _, key := range h.privateProc.deletes {
		tombstoned[key] = true
	}
	if !tombstoned[created.ID.String()] {
		t.Error("saved group not tombstoned on the private feed")
	}
	if len(h.sharedProc.puts) != 3 {
		t.Errorf("shared transport received %d puts, want group+2 tabs", len(h.sharedProc.puts))
	}
	for _, put := range h.sharedProc.puts {
		if put.collaboration != collaboration {
			t.Errorf("shared put %s without collaboration metadata", put.key)
		}
	}

	// The UI sees a removal of the saved group and an add of the new
	// shared one.
	tail := ui.events[len(ui.events)-2:]
	if tail[0] != "removed trip planning local" || tail[1] != "added trip planning local" {
		t.Errorf("events tail = %v", tail)
	}
}

func TestMakeTabGroupSharedRejectsAlreadyShared(t *testing.T) {
	h := newHarness(t, true)
	ui := newRecordingUI()
	h.start(t, ui)

	created := h.service.AddGroup(tabgroup.Group{
		Title: "once",
		Tabs:  []tabgroup.Tab{{URL: "https://x.example"}},
	})
	h.service.OnTabGroupOpened(created.ID, 9)
	shared, ok := h.service.MakeTabGroupShared(9, ref.MustParseCollaborationID("collab/a"))
	if !ok {
		t.Fatal("first share failed")
	}
	if _, ok := h.service.MakeTabGroupShared(9, ref.MustParseCollaborationID("collab/b")); ok {
		t.Error("sharing an already-shared group succeeded")
	}
	if got, _ := h.registry.Get(shared.ID); got.Collaboration.String() != "collab/a" {
		t.Errorf("collaboration changed to %q", got.Collaboration)
	}
}

func TestClosingGroupClearsLocalHandles(t *testing.T) {
	h := newHarness(t, false)
	ui := newRecordingUI()
	h.start(t, ui)

	created := h.service.AddGroup(tabgroup.Group{
		Title: "open",
		Tabs:  []tabgroup.Tab{{URL: "https://tab.example"}},
	})
	h.service.OnTabGroupOpened(created.ID, 3)
	h.service.ConnectLocalTab(created.ID, created.Tabs[0].ID, 31)

	group, _ := h.registry.Get(created.ID)
	if group.LocalID != 3 || group.Tabs[0].LocalID != 31 {
		t.Fatalf("correlation not recorded: %+v", group)
	}

	h.service.OnTabGroupClosed(3)
	group, found := h.registry.Get(created.ID)
	if !found {
		t.Fatal("closing a group deleted it")
	}
	if !group.LocalID.IsZero() || !group.Tabs[0].LocalID.IsZero() {
		t.Error("local handles survived the close")
	}
}
