// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package coordinator reconciles the local tab strip with the synced
// group registry.
//
// At startup the two can disagree: the user opened or closed tabs
// while the engine was not running, and other devices kept syncing.
// Once the service reports initialized, the coordinator walks every
// group open in the tab strip and settles the difference — groups sync
// deleted are closed, groups sync never heard of are persisted, and
// for groups both sides know, the synced state is authoritative and
// the tab strip is patched to match.
//
// After startup the coordinator stays registered as a service observer
// for one job: closing a tab-strip group whose synced counterpart a
// remote device deleted.
package coordinator
