// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package syncbridge

import (
	"context"
	"log/slog"

	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/registry"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// Mediator fans registry mutations out to the bridge owning each
// group and runs the startup join barrier over the bridges' store
// loads. It registers itself as a registry observer on construction.
//
// Routing is by replica class: groups without a collaboration ID
// belong to the private bridge, groups with one to the shared bridge.
// A process without collaboration sync runs with a nil shared bridge;
// a shared group showing up anyway is a programming error and panics.
type Mediator struct {
	registry *registry.Registry
	private  *Bridge
	shared   *Bridge
	logger   *slog.Logger

	// ctx scopes store I/O triggered by observer callbacks. Set by
	// Start; Background before that.
	ctx context.Context

	loadsPending int
	loadedGroups []tabgroup.Group
	loadedTabs   []tabgroup.Tab
	sharedTabs   map[ref.TabID]bool
	ready        bool
	onReady      func()
}

// MediatorConfig holds the mediator's collaborators. Registry and
// Private are required; Shared is nil when collaboration sync is off.
type MediatorConfig struct {
	Registry *registry.Registry
	Private  *Bridge
	Shared   *Bridge
	Logger   *slog.Logger
}

// NewMediator wires a mediator to the registry.
func NewMediator(cfg MediatorConfig) *Mediator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Mediator{
		registry: cfg.Registry,
		private:  cfg.Private,
		shared:   cfg.Shared,
		logger:   logger,
	}
	m.registry.AddObserver(m)
	return m
}

// Start kicks off both store loads. The registry is seeded exactly
// once, after the last load completes; only then does onReady fire, on
// the engine sequence. Until that point the registry stays empty and
// no notification escapes, no matter which load finishes first.
func (m *Mediator) Start(ctx context.Context, onReady func()) {
	m.ctx = ctx
	m.onReady = onReady
	m.sharedTabs = make(map[ref.TabID]bool)
	m.loadsPending = 1
	if m.shared != nil {
		m.loadsPending = 2
	}
	m.private.StartLoad(ctx, func(groups []tabgroup.Group, tabs []tabgroup.Tab) {
		m.loadCompleted(false, groups, tabs)
	})
	if m.shared != nil {
		m.shared.StartLoad(ctx, func(groups []tabgroup.Group, tabs []tabgroup.Tab) {
			m.loadCompleted(true, groups, tabs)
		})
	}
}

func (m *Mediator) loadCompleted(shared bool, groups []tabgroup.Group, tabs []tabgroup.Tab) {
	m.loadedGroups = append(m.loadedGroups, groups...)
	m.loadedTabs = append(m.loadedTabs, tabs...)
	if shared {
		for _, tab := range tabs {
			m.sharedTabs[tab.ID] = true
		}
	}
	m.loadsPending--
	if m.loadsPending > 0 {
		return
	}

	orphans := m.registry.LoadStoredEntries(m.loadedGroups, m.loadedTabs)
	for _, orphan := range orphans {
		if m.shared != nil && m.sharedTabs[orphan.ID] {
			m.shared.orphans.add(orphan)
		} else {
			m.private.orphans.add(orphan)
		}
	}
	m.loadedGroups, m.loadedTabs, m.sharedTabs = nil, nil, nil
	m.ready = true
	if m.onReady != nil {
		m.onReady()
	}
}

// Ready reports whether the join barrier has passed.
func (m *Mediator) Ready() bool { return m.ready }

// GroupsForCollaboration returns every registry group belonging to the
// given collaboration.
func (m *Mediator) GroupsForCollaboration(id ref.CollaborationID) []tabgroup.Group {
	var result []tabgroup.Group
	for _, group := range m.registry.All() {
		if group.Collaboration == id && !id.IsZero() {
			result = append(result, group)
		}
	}
	return result
}

// GroupAdded implements registry.Observer. Remote-origin events came
// from a bridge and must not echo back through one.
func (m *Mediator) GroupAdded(origin registry.Origin, group tabgroup.Group) {
	if origin != registry.OriginLocal {
		return
	}
	m.bridgeFor(&group).localGroupAdded(m.context(), group)
}

// GroupRemoved implements registry.Observer.
func (m *Mediator) GroupRemoved(origin registry.Origin, removed tabgroup.Group) {
	if origin != registry.OriginLocal {
		return
	}
	m.bridgeFor(&removed).localGroupRemoved(m.context(), removed)
}

// GroupUpdated implements registry.Observer.
func (m *Mediator) GroupUpdated(origin registry.Origin, groupID ref.GroupID, tabID ref.TabID) {
	if origin != registry.OriginLocal {
		return
	}
	group, found := m.registry.Get(groupID)
	if !found {
		m.logger.Warn("mediator: update for group no longer present", "group_id", groupID.String())
		return
	}
	m.bridgeFor(&group).localGroupUpdated(m.context(), group, tabID)
}

func (m *Mediator) bridgeFor(group *tabgroup.Group) *Bridge {
	if group.IsShared() {
		if m.shared == nil {
			panic("syncbridge: shared group " + group.ID.String() + " with no shared bridge configured")
		}
		return m.shared
	}
	return m.private
}

func (m *Mediator) context() context.Context {
	if m.ctx != nil {
		return m.ctx
	}
	return context.Background()
}
