// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/tabmesh/tabmesh/lib/clock"
	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/registry"
	"github.com/tabmesh/tabmesh/lib/syncbridge"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// Service is the UI-facing façade over the registry and the sync
// machinery. Construct with New, then call Start once. Not safe for
// concurrent use — every method runs on the engine sequence.
type Service struct {
	registry *registry.Registry
	mediator *syncbridge.Mediator
	clock    clock.Clock
	device   ref.CacheGUID
	logger   *slog.Logger

	observers   []Observer
	initialized bool

	// pending buffers notifications raised before initialization.
	pending []func(Observer)

	// invisible tracks groups the UI has not been shown: remote groups
	// that arrived or loaded with zero tabs. Their first tab surfaces
	// them as an add.
	invisible map[ref.GroupID]bool
}

// Config holds the service's collaborators. Registry and Mediator are
// required. DeviceGUID stamps attribution on local mutations; zero
// leaves attribution unset.
type Config struct {
	Registry *registry.Registry
	Mediator *syncbridge.Mediator

	// Clock stamps creation times for locally created groups and tabs.
	// Nil means wall clock.
	Clock clock.Clock

	// DeviceGUID identifies this device in creator and last-updater
	// attribution.
	DeviceGUID ref.CacheGUID

	// Logger receives warnings about precondition misses. Nil discards
	// output.
	Logger *slog.Logger
}

// New wires a service to the registry. The mediator must already be
// observing the registry so that persistence happens before UI
// notification.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := cfg.Clock
	if c == nil {
		c = clock.Real()
	}
	s := &Service{
		registry:  cfg.Registry,
		mediator:  cfg.Mediator,
		clock:     c,
		device:    cfg.DeviceGUID,
		logger:    logger,
		invisible: make(map[ref.GroupID]bool),
	}
	s.registry.AddObserver(s)
	return s
}

// Start kicks off the store loads. Observers get Initialized once both
// loads complete; notifications raised before that are delivered right
// after it, in order.
func (s *Service) Start(ctx context.Context) {
	s.mediator.Start(ctx, s.handleInitialized)
}

func (s *Service) handleInitialized() {
	// Groups that loaded without tabs stay invisible until content
	// arrives, same as a fresh remote group.
	for _, group := range s.registry.All() {
		if len(group.Tabs) == 0 {
			s.invisible[group.ID] = true
		}
	}
	s.initialized = true
	for _, observer := range s.observers {
		observer.Initialized()
	}
	for _, fn := range s.pending {
		for _, observer := range s.observers {
			fn(observer)
		}
	}
	s.pending = nil
	s.logger.Info("service: initialized", "groups", s.registry.Len())
}

// AddObserver registers an observer. If the service is already
// initialized the observer gets Initialized before AddObserver
// returns.
func (s *Service) AddObserver(observer Observer) {
	s.observers = append(s.observers, observer)
	if s.initialized {
		observer.Initialized()
	}
}

// RemoveObserver unregisters an observer.
func (s *Service) RemoveObserver(observer Observer) {
	for i, existing := range s.observers {
		if existing == observer {
			s.observers = slices.Delete(s.observers, i, i+1)
			return
		}
	}
}

// GetGroup returns the group with the given ID, if the UI may see it.
func (s *Service) GetGroup(id ref.GroupID) (tabgroup.Group, bool) {
	if s.invisible[id] {
		return tabgroup.Group{}, false
	}
	return s.registry.Get(id)
}

// GetGroupByLocalID returns the group open under the given tab-strip
// handle.
func (s *Service) GetGroupByLocalID(localID ref.LocalGroupID) (tabgroup.Group, bool) {
	return s.registry.GetByLocalID(localID)
}

// GetAllGroups returns every group that has at least one tab. Empty
// groups are an engine-internal state the UI never sees.
func (s *Service) GetAllGroups() []tabgroup.Group {
	all := s.registry.All()
	result := make([]tabgroup.Group, 0, len(all))
	for _, group := range all {
		if len(group.Tabs) > 0 {
			result = append(result, group)
		}
	}
	return result
}

// AddGroup creates a new group from the given template. Missing
// identities are assigned, the title is sanitized, and creation and
// attribution are stamped from this device. Returns the completed
// group as stored.
func (s *Service) AddGroup(group tabgroup.Group) tabgroup.Group {
	now := s.clock.Now()
	if group.ID.IsZero() {
		group.ID = ref.NewGroupID()
	}
	group.Title = tabgroup.SanitizeTitle(group.Title)
	group.Creator = s.device
	group.LastUpdater = s.device
	if group.CreationTime.IsZero() {
		group.CreationTime = now
	}
	if group.UpdateTime.IsZero() {
		group.UpdateTime = now
	}
	for i := range group.Tabs {
		tab := &group.Tabs[i]
		if tab.ID.IsZero() {
			tab.ID = ref.NewTabID()
		}
		tab.GroupID = group.ID
		tab.Title = tabgroup.SanitizeTitle(tab.Title)
		// Template order is the tab order.
		tab.Position = i
		tab.Creator = s.device
		tab.LastUpdater = s.device
		if tab.CreationTime.IsZero() {
			tab.CreationTime = now
		}
		if tab.UpdateTime.IsZero() {
			tab.UpdateTime = now
		}
	}
	s.registry.Add(registry.OriginLocal, group)
	return group
}

// RemoveGroup deletes a group and all its tabs.
func (s *Service) RemoveGroup(id ref.GroupID) {
	s.registry.Remove(registry.OriginLocal, id)
}

// RemoveGroupByLocalID is RemoveGroup keyed by the tab-strip handle.
func (s *Service) RemoveGroupByLocalID(localID ref.LocalGroupID) {
	s.registry.RemoveByLocalID(registry.OriginLocal, localID)
}

// UpdateVisualData renames or recolors a group.
func (s *Service) UpdateVisualData(id ref.GroupID, title string, color tabgroup.Color) {
	s.registry.StampAttribution(id, ref.TabID{}, s.device)
	s.registry.UpdateVisualData(registry.OriginLocal, id, tabgroup.SanitizeTitle(title), color)
}

// SetPinned pins or unpins a saved group at the given position.
func (s *Service) SetPinned(id ref.GroupID, pinned bool, position int) {
	s.registry.StampAttribution(id, ref.TabID{}, s.device)
	s.registry.SetPinned(registry.OriginLocal, id, pinned, position)
}

// AddTab adds a tab to a group at the tab's position (appended when
// negative). Returns the completed tab as stored.
func (s *Service) AddTab(groupID ref.GroupID, tab tabgroup.Tab) tabgroup.Tab {
	if tab.ID.IsZero() {
		tab.ID = ref.NewTabID()
	}
	tab.GroupID = groupID
	tab.Title = tabgroup.SanitizeTitle(tab.Title)
	tab.Creator = s.device
	tab.LastUpdater = s.device
	s.registry.AddTab(registry.OriginLocal, groupID, tab)
	return tab
}

// UpdateTab replaces a tab's URL and title, typically on navigation.
func (s *Service) UpdateTab(groupID ref.GroupID, tabID ref.TabID, url, title string) {
	s.registry.StampAttribution(groupID, tabID, s.device)
	s.registry.UpdateTab(registry.OriginLocal, groupID, tabID, url, tabgroup.SanitizeTitle(title))
}

// MoveTab moves a tab to the given index within its group.
func (s *Service) MoveTab(groupID ref.GroupID, tabID ref.TabID, toIndex int) {
	s.registry.StampAttribution(groupID, tabID, s.device)
	s.registry.MoveTab(registry.OriginLocal, groupID, tabID, toIndex)
}

// RemoveTab deletes a tab. Removing a group's last tab locally removes
// the group as well — a user closing the final tab means the group is
// done. Remote tab deletions never cascade this way.
func (s *Service) RemoveTab(groupID ref.GroupID, tabID ref.TabID) {
	if !s.registry.RemoveTab(registry.OriginLocal, groupID, tabID) {
		return
	}
	if group, found := s.registry.Get(groupID); found && len(group.Tabs) == 0 {
		s.registry.Remove(registry.OriginLocal, groupID)
	}
}

// OnTabSelected records that the user focused a tab in a synced group.
// Observation only; nothing changes and nothing syncs.
func (s *Service) OnTabSelected(groupID ref.GroupID, tabID ref.TabID) {
	s.logger.Debug("service: tab selected",
		"group_id", groupID.String(), "tab_id", tabID.String())
}

// OnTabGroupOpened correlates a group with the tab-strip group that
// now displays it.
func (s *Service) OnTabGroupOpened(id ref.GroupID, localID ref.LocalGroupID) {
	s.registry.OpenInTabStrip(id, localID)
}

// OnTabGroupClosed drops a group's tab-strip correlation. The group
// itself survives; only the local handles are cleared.
func (s *Service) OnTabGroupClosed(localID ref.LocalGroupID) {
	s.registry.CloseInTabStrip(localID)
}

// ConnectLocalTab correlates one tab with its tab-strip handle.
func (s *Service) ConnectLocalTab(groupID ref.GroupID, tabID ref.TabID, localID ref.LocalTabID) {
	s.registry.SetTabLocalID(groupID, tabID, localID)
}

// MakeTabGroupShared converts an open saved group into a shared group
// for the given collaboration. Replica class is immutable, so this is
// a delete plus recreate: the saved group is tombstoned and a new
// group with fresh identities — same content, same tab-strip
// correlation — is created under the collaboration. Returns the new
// group; false if the handle resolves to nothing or to a group that is
// already shared.
func (s *Service) MakeTabGroupShared(localID ref.LocalGroupID, collaboration ref.CollaborationID) (tabgroup.Group, bool) {
	group, found := s.registry.GetByLocalID(localID)
	if !found {
		s.logger.Warn("service: share of unknown local group", "local_id", localID.String())
		return tabgroup.Group{}, false
	}
	if group.IsShared() {
		s.logger.Warn("service: share of already-shared group", "group_id", group.ID.String())
		return tabgroup.Group{}, false
	}

	now := s.clock.Now()
	shared := tabgroup.Group{
		ID:            ref.NewGroupID(),
		Title:         group.Title,
		Color:         group.Color,
		LocalID:       group.LocalID,
		Collaboration: collaboration,
		Creator:       s.device,
		LastUpdater:   s.device,
		CreationTime:  now,
		UpdateTime:    now,
		Tabs:          make([]tabgroup.Tab, 0, len(group.Tabs)),
	}
	for _, tab := range group.Tabs {
		shared.Tabs = append(shared.Tabs, tabgroup.Tab{
			ID:           ref.NewTabID(),
			GroupID:      shared.ID,
			URL:          tab.URL,
			Title:        tab.Title,
			Position:     tab.Position,
			LocalID:      tab.LocalID,
			Creator:      s.device,
			LastUpdater:  s.device,
			CreationTime: now,
			UpdateTime:   now,
		})
	}

	s.registry.Remove(registry.OriginLocal, group.ID)
	s.registry.Add(registry.OriginLocal, shared)
	s.logger.Info("service: saved group shared",
		"old_group_id", group.ID.String(),
		"new_group_id", shared.ID.String(),
		"collaboration", collaboration.String())
	return shared, true
}

// GroupAdded implements registry.Observer. A group with no tabs is
// held back regardless of origin; its first tab will surface it. The
// hold-back is UI-only — the group still persists and syncs.
func (s *Service) GroupAdded(origin registry.Origin, group tabgroup.Group) {
	if len(group.Tabs) == 0 {
		s.invisible[group.ID] = true
		return
	}
	s.notify(func(o Observer) { o.TabGroupAdded(group, origin) })
}

// GroupRemoved implements registry.Observer. Removing a group the UI
// never saw stays silent.
func (s *Service) GroupRemoved(origin registry.Origin, removed tabgroup.Group) {
	if s.invisible[removed.ID] {
		delete(s.invisible, removed.ID)
		return
	}
	s.notify(func(o Observer) { o.TabGroupRemoved(removed, origin) })
}

// GroupUpdated implements registry.Observer. The first update that
// gives a held-back group content is reinterpreted as the group's
// appearance.
func (s *Service) GroupUpdated(origin registry.Origin, groupID ref.GroupID, tabID ref.TabID) {
	group, found := s.registry.Get(groupID)
	if !found {
		return
	}
	if s.invisible[groupID] {
		if len(group.Tabs) == 0 {
			return
		}
		delete(s.invisible, groupID)
		s.notify(func(o Observer) { o.TabGroupAdded(group, origin) })
		return
	}
	s.notify(func(o Observer) { o.TabGroupUpdated(group, origin) })
}

func (s *Service) notify(fn func(Observer)) {
	if !s.initialized {
		s.pending = append(s.pending, fn)
		return
	}
	for _, observer := range s.observers {
		fn(observer)
	}
}
