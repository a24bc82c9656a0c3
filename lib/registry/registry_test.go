// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/tabmesh/tabmesh/lib/clock"
	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// recordingObserver appends one line per notification, capturing the
// origin and the affected IDs.
type recordingObserver struct {
	label  string
	events []string
}

func (o *recordingObserver) GroupAdded(origin Origin, group tabgroup.Group) {
	o.events = append(o.events, fmt.Sprintf("%s:added:%s:%s", o.label, origin, group.ID))
}

func (o *recordingObserver) GroupRemoved(origin Origin, removed tabgroup.Group) {
	o.events = append(o.events, fmt.Sprintf("%s:removed:%s:%s", o.label, origin, removed.ID))
}

func (o *recordingObserver) GroupUpdated(origin Origin, groupID ref.GroupID, tabID ref.TabID) {
	o.events = append(o.events, fmt.Sprintf("%s:updated:%s:%s:%s", o.label, origin, groupID, tabID))
}

func newTestRegistry(t *testing.T) (*Registry, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return New(Config{Clock: fake}), fake
}

func makeGroup(title string) tabgroup.Group {
	return tabgroup.Group{ID: ref.NewGroupID(), Title: title, Color: tabgroup.ColorBlue}
}

func makeTab(group ref.GroupID, url string, position int) tabgroup.Tab {
	return tabgroup.Tab{ID: ref.NewTabID(), GroupID: group, URL: url, Position: position}
}

func TestAddIsIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	if !r.Add(OriginLocal, group) {
		t.Fatal("first Add returned false")
	}
	if r.Add(OriginLocal, group) {
		t.Error("second Add of the same ID returned true")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestObserversFireInRegistrationOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	first := &recordingObserver{label: "first"}
	second := &recordingObserver{label: "second"}
	r.AddObserver(first)
	r.AddObserver(second)

	group := makeGroup("Trip")
	r.Add(OriginRemote, group)

	want := "first:added:remote:" + group.ID.String()
	if len(first.events) != 1 || first.events[0] != want {
		t.Errorf("first observer events = %v, want [%s]", first.events, want)
	}
	if len(second.events) != 1 {
		t.Errorf("second observer events = %v, want one event", second.events)
	}
}

func TestRemoveObserver(t *testing.T) {
	r, _ := newTestRegistry(t)
	observer := &recordingObserver{label: "o"}
	r.AddObserver(observer)
	r.RemoveObserver(observer)
	r.Add(OriginLocal, makeGroup("Trip"))
	if len(observer.events) != 0 {
		t.Errorf("removed observer received %v", observer.events)
	}
}

func TestRemoveReturnsSnapshot(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	r.Add(OriginLocal, group)
	r.AddTab(OriginLocal, group.ID, makeTab(group.ID, "https://a.example", -1))

	removed, ok := r.Remove(OriginLocal, group.ID)
	if !ok {
		t.Fatal("Remove returned false")
	}
	if len(removed.Tabs) != 1 {
		t.Errorf("removed snapshot has %d tabs, want 1", len(removed.Tabs))
	}
	if r.Len() != 0 {
		t.Errorf("Len() after remove = %d, want 0", r.Len())
	}
	if _, ok := r.Remove(OriginLocal, group.ID); ok {
		t.Error("second Remove returned true")
	}
}

func TestUpdateVisualDataSkipsRedundantWrites(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	r.Add(OriginLocal, group)

	observer := &recordingObserver{label: "o"}
	r.AddObserver(observer)

	r.UpdateVisualData(OriginLocal, group.ID, "Trip", tabgroup.ColorBlue)
	if len(observer.events) != 0 {
		t.Errorf("redundant update fired %v", observer.events)
	}

	r.UpdateVisualData(OriginLocal, group.ID, "Trip 2026", tabgroup.ColorGreen)
	if len(observer.events) != 1 {
		t.Fatalf("update fired %d events, want 1", len(observer.events))
	}
	got, _ := r.Get(group.ID)
	if got.Title != "Trip 2026" || got.Color != tabgroup.ColorGreen {
		t.Errorf("group after update = %q/%v", got.Title, got.Color)
	}
}

func TestLocalMutationStampsUpdateTime(t *testing.T) {
	r, fake := newTestRegistry(t)
	group := makeGroup("Trip")
	r.Add(OriginLocal, group)

	fake.Advance(time.Minute)
	r.UpdateVisualData(OriginLocal, group.ID, "Renamed", tabgroup.ColorBlue)
	got, _ := r.Get(group.ID)
	if !got.UpdateTime.Equal(fake.Now()) {
		t.Errorf("UpdateTime = %v, want %v", got.UpdateTime, fake.Now())
	}
}

func TestDensePositionsAfterMoves(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	r.Add(OriginLocal, group)

	a := makeTab(group.ID, "https://a.example", -1)
	b := makeTab(group.ID, "https://b.example", -1)
	c := makeTab(group.ID, "https://c.example", -1)
	r.AddTab(OriginLocal, group.ID, a)
	r.AddTab(OriginLocal, group.ID, b)
	r.AddTab(OriginLocal, group.ID, c)

	// [A@0, B@1, C@2]; move A to index 2 -> [B@0, C@1, A@2].
	r.MoveTab(OriginLocal, group.ID, a.ID, 2)
	got, _ := r.Get(group.ID)
	wantOrder := []ref.TabID{b.ID, c.ID, a.ID}
	for i, id := range wantOrder {
		if got.Tabs[i].ID != id {
			t.Errorf("tabs[%d] = %s, want %s", i, got.Tabs[i].ID, id)
		}
		if got.Tabs[i].Position != i {
			t.Errorf("tabs[%d].Position = %d, want %d", i, got.Tabs[i].Position, i)
		}
	}

	r.RemoveTab(OriginLocal, group.ID, c.ID)
	got, _ = r.Get(group.ID)
	for i := range got.Tabs {
		if got.Tabs[i].Position != i {
			t.Errorf("after remove: tabs[%d].Position = %d", i, got.Tabs[i].Position)
		}
	}
}

func TestMoveTabClampsIndex(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	r.Add(OriginLocal, group)
	a := makeTab(group.ID, "https://a.example", -1)
	b := makeTab(group.ID, "https://b.example", -1)
	r.AddTab(OriginLocal, group.ID, a)
	r.AddTab(OriginLocal, group.ID, b)

	r.MoveTab(OriginLocal, group.ID, a.ID, 99)
	got, _ := r.Get(group.ID)
	if got.Tabs[1].ID != a.ID {
		t.Error("move past the end did not clamp to the last index")
	}
}

func TestRemoveLastTabKeepsGroup(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	r.Add(OriginLocal, group)
	tab := makeTab(group.ID, "https://a.example", -1)
	r.AddTab(OriginRemote, group.ID, tab)
	r.RemoveTab(OriginRemote, group.ID, tab.ID)

	got, ok := r.Get(group.ID)
	if !ok {
		t.Fatal("group removed by remote tab deletion")
	}
	if len(got.Tabs) != 0 {
		t.Errorf("group has %d tabs, want 0", len(got.Tabs))
	}
}

func TestPreconditionMissesAreNoOps(t *testing.T) {
	r, _ := newTestRegistry(t)
	unknownGroup := ref.NewGroupID()

	// None of these may panic or mutate anything.
	r.UpdateVisualData(OriginLocal, unknownGroup, "x", tabgroup.ColorRed)
	if r.AddTab(OriginLocal, unknownGroup, makeTab(unknownGroup, "https://a.example", -1)) {
		t.Error("AddTab to unknown group returned true")
	}
	if r.RemoveTab(OriginLocal, unknownGroup, ref.NewTabID()) {
		t.Error("RemoveTab in unknown group returned true")
	}
	if r.MoveTab(OriginLocal, unknownGroup, ref.NewTabID(), 0) {
		t.Error("MoveTab in unknown group returned true")
	}
	if r.UpdateTab(OriginLocal, unknownGroup, ref.NewTabID(), "u", "t") {
		t.Error("UpdateTab in unknown group returned true")
	}
}

func TestOpenCloseClearsAllLocalIDs(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	r.Add(OriginLocal, group)
	tab := makeTab(group.ID, "https://a.example", -1)
	r.AddTab(OriginLocal, group.ID, tab)

	r.OpenInTabStrip(group.ID, ref.LocalGroupID(11))
	r.SetTabLocalID(group.ID, tab.ID, ref.LocalTabID(21))

	got, ok := r.GetByLocalID(ref.LocalGroupID(11))
	if !ok || got.ID != group.ID {
		t.Fatal("GetByLocalID did not find the opened group")
	}
	if got.Tabs[0].LocalID != 21 {
		t.Errorf("tab local ID = %v, want 21", got.Tabs[0].LocalID)
	}

	r.CloseInTabStrip(ref.LocalGroupID(11))
	got, _ = r.Get(group.ID)
	if !got.LocalID.IsZero() {
		t.Error("group local ID survived close")
	}
	if !got.Tabs[0].LocalID.IsZero() {
		t.Error("tab local ID survived group close")
	}
}

func TestFindTab(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	r.Add(OriginLocal, group)
	tab := makeTab(group.ID, "https://a.example", -1)
	r.AddTab(OriginLocal, group.ID, tab)

	found, owner, ok := r.FindTab(tab.ID)
	if !ok || owner != group.ID || found.ID != tab.ID {
		t.Errorf("FindTab = (%v, %s, %v)", found.ID, owner, ok)
	}
	if _, _, ok := r.FindTab(ref.NewTabID()); ok {
		t.Error("FindTab found a tab that does not exist")
	}
}

func TestLoadStoredEntriesReturnsOrphans(t *testing.T) {
	r, _ := newTestRegistry(t)
	group := makeGroup("Trip")
	matching := makeTab(group.ID, "https://a.example", 0)
	orphan := makeTab(ref.NewGroupID(), "https://lost.example", 0)

	orphans := r.LoadStoredEntries(
		[]tabgroup.Group{group},
		[]tabgroup.Tab{matching, orphan},
	)
	if len(orphans) != 1 || orphans[0].ID != orphan.ID {
		t.Fatalf("orphans = %v, want the unmatched tab", orphans)
	}
	got, ok := r.Get(group.ID)
	if !ok || len(got.Tabs) != 1 || got.Tabs[0].ID != matching.ID {
		t.Errorf("loaded group = %+v", got)
	}
}
