// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

// Package storage defines storable representations of the delivery
// core's two persisted record types, independent of any particular
// key/value backend.
package storage

import (
	"encoding/json"
	"errors"
	"strconv"

	delivery "github.com/mochi-mqtt/delivery-core"
)

const (
	BaseMessageKey   = "BM" // unique key prefix for a stored BaseMessage
	ClientMessageKey = "CM" // unique key prefix for a stored ClientMessage
	SysInfoKey       = "SYS"
)

var (
	// ErrDBFileNotOpen indicates that the file database (e.g. bolt/badger) wasn't open for reading.
	ErrDBFileNotOpen = errors.New("db file not open")
)

// Serializable is an interface for objects that can be serialized and deserialized.
type Serializable interface {
	UnmarshalBinary([]byte) error
	MarshalBinary() (data []byte, err error)
}

// UserProperty is a storable mqtt v5 user property pair.
type UserProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MessageProperties contains a limited subset of mqtt v5 properties specific to publish messages.
type MessageProperties struct {
	CorrelationData         []byte         `json:"correlationData,omitempty"`
	SubscriptionIdentifiers []int          `json:"subscriptionIdentifiers,omitempty"`
	User                    []UserProperty `json:"user,omitempty"`
	ContentType             string         `json:"contentType,omitempty"`
	ResponseTopic           string         `json:"responseTopic,omitempty"`
	MessageExpiryInterval   uint32         `json:"messageExpiry,omitempty"`
	PayloadFormat           byte           `json:"payloadFormat,omitempty"`
}

// BaseMessage is a storable representation of a delivery.BaseMessage,
// keyed by its db id.
type BaseMessage struct {
	Properties     MessageProperties `json:"properties"`
	Topic          string            `json:"topic"`
	Payload        []byte            `json:"payload"`
	SourceID       string            `json:"sourceId,omitempty"`
	SourceUsername string            `json:"sourceUsername,omitempty"`
	SourceListener string            `json:"sourceListener,omitempty"`
	DestIDs        []string          `json:"destIds,omitempty"`
	T              string            `json:"t,omitempty"`
	ID             uint64            `json:"id" storm:"id"`
	SourceMid      uint16            `json:"sourceMid,omitempty"`
	Qos            byte              `json:"qos"`
	Origin         byte              `json:"origin"`
	Retain         bool              `json:"retain,omitempty"`
	ExpiryTime     int64             `json:"expiryTime,omitempty"`
}

// MarshalBinary encodes the values into a json string.
func (d BaseMessage) MarshalBinary() (data []byte, err error) {
	return json.Marshal(d)
}

// UnmarshalBinary decodes a json string into a struct.
func (d *BaseMessage) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, d)
}

// FromBaseMessage flattens a live delivery.BaseMessage into its
// storable form.
func FromBaseMessage(base *delivery.BaseMessage) *BaseMessage {
	out := &BaseMessage{
		ID:             base.ID,
		T:              BaseMessageKey,
		Topic:          base.Topic,
		Payload:        append([]byte(nil), base.Payload...),
		SourceID:       base.SourceID,
		SourceUsername: base.SourceUsername,
		SourceListener: base.SourceListener,
		SourceMid:      base.SourceMid,
		Qos:            base.Qos,
		Retain:         base.Retain,
		Origin:         byte(base.Origin),
		ExpiryTime:     base.ExpiryTime,
		Properties: MessageProperties{
			ContentType:             base.Properties.ContentType,
			ResponseTopic:           base.Properties.ResponseTopic,
			CorrelationData:         base.Properties.CorrelationData,
			MessageExpiryInterval:   base.Properties.MessageExpiryInterval,
			PayloadFormat:           base.Properties.PayloadFormatIndicator,
			SubscriptionIdentifiers: append([]int(nil), base.Properties.SubscriptionIdentifiers...),
		},
	}
	for _, up := range base.Properties.UserProperties {
		out.Properties.User = append(out.Properties.User, UserProperty{Key: up.Key, Value: up.Value})
	}
	for id := range base.DestIDs {
		out.DestIDs = append(out.DestIDs, id)
	}
	return out
}

// ClientMessage is a storable representation of a delivery.ClientMessage
// delivery record, keyed by (client id, cmsg id).
type ClientMessage struct {
	ID                     string `json:"id" storm:"id"`
	ClientID               string `json:"clientId"`
	CmsgID                 uint64 `json:"cmsgId"`
	BaseID                 uint64 `json:"baseId"`
	Mid                    uint16 `json:"mid"`
	Direction              byte   `json:"direction"`
	State                  byte   `json:"state"`
	Qos                    byte   `json:"qos"`
	Retain                 bool   `json:"retain,omitempty"`
	SubscriptionIdentifier uint32 `json:"subscriptionIdentifier,omitempty"`
}

// MarshalBinary encodes the values into a json string.
func (d ClientMessage) MarshalBinary() (data []byte, err error) {
	return json.Marshal(d)
}

// UnmarshalBinary decodes a json string into a struct.
func (d *ClientMessage) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, d)
}

// ClientMessageID builds the storage key for a client's delivery
// record, keyed by (client id, cmsg id) so it survives reconnects
// under a different mid.
func ClientMessageID(clientID string, cmsgID uint64) string {
	return ClientMessageKey + "_" + clientID + "_" + strconv.FormatUint(cmsgID, 10)
}

// FromClientMessage flattens a live delivery.ClientMessage delivery
// record bound to cl into its storable form.
func FromClientMessage(cl *delivery.Client, cm *delivery.ClientMessage) *ClientMessage {
	var baseID uint64
	if cm.Base != nil {
		baseID = cm.Base.ID
	}
	return &ClientMessage{
		ID:                     ClientMessageID(cl.ID, cm.CmsgID),
		ClientID:               cl.ID,
		CmsgID:                 cm.CmsgID,
		BaseID:                 baseID,
		Mid:                    cm.Mid,
		Direction:              byte(cm.Direction),
		State:                  byte(cm.State),
		Qos:                    cm.Qos,
		Retain:                 cm.Retain,
		SubscriptionIdentifier: cm.SubscriptionIdentifier,
	}
}
