// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"log/slog"

	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/registry"
	"github.com/tabmesh/tabmesh/lib/service"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// OpenTab is one open tab of a tab-strip group.
type OpenTab struct {
	LocalID ref.LocalTabID
	URL     string
	Title   string
}

// OpenGroup is one tab group currently open in the tab strip.
type OpenGroup struct {
	LocalID ref.LocalGroupID

	// SyncedID is the synced group this tab-strip group represented
	// when the session state was last written. Zero for a group that
	// was never synced.
	SyncedID ref.GroupID

	Title string
	Color tabgroup.Color
	Tabs  []OpenTab
}

// TabModel is the local tab strip as the coordinator drives it. Also
// satisfies syncbridge.TabCloser, so the same implementation serves
// the shared bridge's sync-disable cleanup.
type TabModel interface {
	// OpenGroups enumerates every tab group open in this process.
	OpenGroups() []OpenGroup

	// OpenTab opens url as a background tab inside an open group and
	// returns its handle.
	OpenTab(group ref.LocalGroupID, url string) (ref.LocalTabID, error)

	// CloseTab closes one tab of an open group.
	CloseTab(group ref.LocalGroupID, tab ref.LocalTabID)

	// CloseGroup closes a whole tab-strip group and its tabs.
	CloseGroup(group ref.LocalGroupID)
}

// Coordinator runs the startup reconciliation. Construct with New; it
// registers itself as a service observer and does its work when
// Initialized fires. Runs on the engine sequence.
type Coordinator struct {
	service *service.Service
	model   TabModel
	logger  *slog.Logger
}

// Config holds the coordinator's collaborators. Service and Model are
// required.
type Config struct {
	Service *service.Service
	Model   TabModel
	Logger  *slog.Logger
}

// New wires a coordinator to the service.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Coordinator{
		service: cfg.Service,
		model:   cfg.Model,
		logger:  logger,
	}
	c.service.AddObserver(c)
	return c
}

// Initialized implements service.Observer: the registry is loaded, so
// reconcile the tab strip against it.
func (c *Coordinator) Initialized() {
	for _, open := range c.model.OpenGroups() {
		c.reconcileGroup(open)
	}
}

// TabGroupAdded implements service.Observer.
func (c *Coordinator) TabGroupAdded(tabgroup.Group, registry.Origin) {}

// TabGroupUpdated implements service.Observer.
func (c *Coordinator) TabGroupUpdated(tabgroup.Group, registry.Origin) {}

// TabGroupRemoved implements service.Observer. A remote deletion of a
// group that is open here closes it in the tab strip; its tabs must
// not linger as a ghost of deleted shared content.
func (c *Coordinator) TabGroupRemoved(removed tabgroup.Group, origin registry.Origin) {
	if origin != registry.OriginRemote || removed.LocalID.IsZero() {
		return
	}
	c.logger.Info("coordinator: closing remotely deleted group",
		"group_id", removed.ID.String(), "local_id", removed.LocalID.String())
	c.model.CloseGroup(removed.LocalID)
}

func (c *Coordinator) reconcileGroup(open OpenGroup) {
	if open.SyncedID.IsZero() {
		c.persistNewGroup(open)
		return
	}
	synced, found := c.service.GetGroup(open.SyncedID)
	if !found {
		// Deleted by sync while this process was not running.
		c.logger.Info("coordinator: closing group deleted while away",
			"group_id", open.SyncedID.String(), "local_id", open.LocalID.String())
		c.model.CloseGroup(open.LocalID)
		return
	}
	c.service.OnTabGroupOpened(synced.ID, open.LocalID)
	c.reconcileTabs(open, synced)
}

// persistNewGroup saves a tab-strip group sync has never seen.
func (c *Coordinator) persistNewGroup(open OpenGroup) {
	group := tabgroup.Group{
		Title: open.Title,
		Color: open.Color,
	}
	for i, tab := range open.Tabs {
		group.Tabs = append(group.Tabs, tabgroup.Tab{
			URL:      tab.URL,
			Title:    tab.Title,
			Position: i,
		})
	}
	created := c.service.AddGroup(group)
	c.service.OnTabGroupOpened(created.ID, open.LocalID)
	for i, tab := range created.Tabs {
		c.service.ConnectLocalTab(created.ID, tab.ID, open.Tabs[i].LocalID)
	}
	c.logger.Info("coordinator: persisted unsynced open group",
		"group_id", created.ID.String(), "tabs", len(created.Tabs))
}

// reconcileTabs patches an open group to match its synced state. The
// synced side is authoritative: synced tabs missing locally open as
// background tabs, local tabs sync does not know are persisted into
// the group. Matching is by URL, each local tab consumed once.
func (c *Coordinator) reconcileTabs(open OpenGroup, synced tabgroup.Group) {
	unmatched := make([]OpenTab, len(open.Tabs))
	copy(unmatched, open.Tabs)

	for _, tab := range synced.Tabs {
		if i := matchByURL(unmatched, tab.URL); i >= 0 {
			c.service.ConnectLocalTab(synced.ID, tab.ID, unmatched[i].LocalID)
			unmatched = append(unmatched[:i], unmatched[i+1:]...)
			continue
		}
		localID, err := c.model.OpenTab(open.LocalID, tab.URL)
		if err != nil {
			c.logger.Warn("coordinator: opening synced tab",
				"group_id", synced.ID.String(), "url", tab.URL, "error", err)
			continue
		}
		c.service.ConnectLocalTab(synced.ID, tab.ID, localID)
	}

	for _, tab := range unmatched {
		added := c.service.AddTab(synced.ID, tabgroup.Tab{
			URL:      tab.URL,
			Title:    tab.Title,
			Position: -1,
		})
		c.service.ConnectLocalTab(synced.ID, added.ID, tab.LocalID)
	}
}

func matchByURL(tabs []OpenTab, url string) int {
	for i := range tabs {
		if tabs[i].URL == url {
			return i
		}
	}
	return -1
}
