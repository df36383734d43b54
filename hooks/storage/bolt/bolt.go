// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co, werbenhu

// Package bolt is a boltdb-backed Persistence implementation for the
// delivery core, storing base messages and per-client delivery
// records keyed the way storage.BaseMessage and storage.ClientMessage
// describe.
package bolt

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	delivery "github.com/mochi-mqtt/delivery-core"
	"github.com/mochi-mqtt/delivery-core/hooks/storage"
	"go.etcd.io/bbolt"
)

var ErrKeyNotFound = errors.New("key not found")

const (
	defaultDbFile  = ".bolt"
	defaultTimeout = 250 * time.Millisecond
	defaultBucket  = "delivery"
)

// Options configures a Hook.
type Options struct {
	Options *bbolt.Options
	Bucket  string `yaml:"bucket" json:"bucket"`
	Path    string `yaml:"path" json:"path"`
}

// Hook is a delivery.Persistence implementation backed by a boltdb
// file store.
type Hook struct {
	Log    *slog.Logger
	config *Options
	db     *bbolt.DB
}

// ID identifies this hook for logging purposes.
func (h *Hook) ID() string { return "bolt-db" }

// Open connects to (and creates, if absent) the boltdb file and bucket.
func (h *Hook) Open(config *Options) error {
	if config == nil {
		config = new(Options)
	}
	h.config = config
	if h.config.Options == nil {
		h.config.Options = &bbolt.Options{Timeout: defaultTimeout}
	}
	if h.config.Path == "" {
		h.config.Path = defaultDbFile
	}
	if h.config.Bucket == "" {
		h.config.Bucket = defaultBucket
	}
	if h.Log == nil {
		h.Log = slog.Default()
	}

	var err error
	h.db, err = bbolt.Open(h.config.Path, 0600, h.config.Options)
	if err != nil {
		return err
	}

	return h.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(h.config.Bucket))
		return err
	})
}

// Stop closes the boltdb instance.
func (h *Hook) Stop() error {
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

// BaseMessageAdd stores base, satisfying delivery.Persistence.
func (h *Hook) BaseMessageAdd(base *delivery.BaseMessage) {
	h.setKv(baseMessageKey(base.ID), storage.FromBaseMessage(base))
}

// BaseMessageDelete removes base's stored record.
func (h *Hook) BaseMessageDelete(base *delivery.BaseMessage) {
	h.delKv(baseMessageKey(base.ID))
}

// ClientMessageAdd stores a new delivery record for cl.
func (h *Hook) ClientMessageAdd(cl *delivery.Client, cm *delivery.ClientMessage) {
	h.setKv(storage.ClientMessageID(cl.ID, cm.CmsgID), storage.FromClientMessage(cl, cm))
}

// ClientMessageUpdate overwrites cl's stored delivery record, used
// when its State changes (e.g. publish_qos2 -> wait_for_pubrel).
func (h *Hook) ClientMessageUpdate(cl *delivery.Client, cm *delivery.ClientMessage) {
	h.setKv(storage.ClientMessageID(cl.ID, cm.CmsgID), storage.FromClientMessage(cl, cm))
}

// ClientMessageDelete removes cl's stored delivery record.
func (h *Hook) ClientMessageDelete(cl *delivery.Client, cm *delivery.ClientMessage) {
	h.delKv(storage.ClientMessageID(cl.ID, cm.CmsgID))
}

// StoredBaseMessages returns every stored base message, used to
// rebuild the shared message store on startup.
func (h *Hook) StoredBaseMessages() ([]storage.BaseMessage, error) {
	var out []storage.BaseMessage
	err := h.iterKv(storage.BaseMessageKey, func(value []byte) error {
		var obj storage.BaseMessage
		if err := obj.UnmarshalBinary(value); err != nil {
			return err
		}
		out = append(out, obj)
		return nil
	})
	return out, err
}

// StoredClientMessages returns every stored per-client delivery
// record, used to rebuild each client's lanes on startup.
func (h *Hook) StoredClientMessages() ([]storage.ClientMessage, error) {
	var out []storage.ClientMessage
	err := h.iterKv(storage.ClientMessageKey, func(value []byte) error {
		var obj storage.ClientMessage
		if err := obj.UnmarshalBinary(value); err != nil {
			return err
		}
		out = append(out, obj)
		return nil
	})
	return out, err
}

func baseMessageKey(id uint64) string {
	return storage.BaseMessageKey + "_" + strconv.FormatUint(id, 10)
}

func (h *Hook) setKv(k string, v storage.Serializable) {
	if h.db == nil {
		h.Log.Error("store not open", "error", storage.ErrDBFileNotOpen, "key", k)
		return
	}
	err := h.db.Update(func(tx *bbolt.Tx) error {
		data, err := v.MarshalBinary()
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(h.config.Bucket)).Put([]byte(k), data)
	})
	if err != nil {
		h.Log.Error("failed to upsert data", "error", err, "key", k)
	}
}

func (h *Hook) delKv(k string) {
	if h.db == nil {
		h.Log.Error("store not open", "error", storage.ErrDBFileNotOpen, "key", k)
		return
	}
	err := h.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(h.config.Bucket)).Delete([]byte(k))
	})
	if err != nil {
		h.Log.Error("failed to delete data", "error", err, "key", k)
	}
}

func (h *Hook) iterKv(prefix string, visit func([]byte) error) error {
	if h.db == nil {
		return storage.ErrDBFileNotOpen
	}
	return h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(h.config.Bucket)).Cursor()
		pfx := []byte(prefix)
		for k, v := c.Seek(pfx); k != nil && len(k) >= len(pfx) && string(k[:len(pfx)]) == prefix; k, v = c.Next() {
			if err := visit(v); err != nil {
				return err
			}
		}
		return nil
	})
}
