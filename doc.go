// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

// Package delivery implements the per-client message delivery core of an
// MQTT broker: it tracks outstanding publish deliveries for each known
// client, sequences QoS 1/2 handshakes, enforces inflight and queue
// bounds, admits or drops messages under pressure, and carries messages
// through reconnect and expiry.
//
// The package does not parse MQTT packets, route topics, or touch a
// network socket. Those are external collaborators reached through the
// interfaces in collaborators.go.
package delivery
