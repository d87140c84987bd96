package store

import (
	"encoding/json"

	"github.com/RoanBrand/gomq"
	"github.com/dgraph-io/badger"
)

var (
	clientIDKey    = []byte("clientid")
	settingsPrefix = []byte("settings/")
)

// DiskStore persists engine settings between restarts of the daemon.
type DiskStore struct {
	db *badger.DB
}

func NewDiskStore(dir string) (*DiskStore, error) {
	opts := badger.DefaultOptions
	opts.Dir, opts.ValueDir = dir, dir
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &DiskStore{db: db}, nil
}

func (s *DiskStore) Close() error {
	return s.db.Close()
}

func settingsKey(clientID string) []byte {
	key := make([]byte, 0, len(settingsPrefix)+len(clientID))
	key = append(key, settingsPrefix...)
	return append(key, clientID...)
}

// SaveSettings stores the credentials and will used by clientID.
func (s *DiskStore) SaveSettings(clientID string, st gomq.Settings) error {
	val, err := json.Marshal(&st)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(settingsKey(clientID), val)
	})
}

// LoadSettings returns the settings stored for clientID. ok is false if there are none.
func (s *DiskStore) LoadSettings(clientID string) (st gomq.Settings, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(settingsKey(clientID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		val, err := item.Value()
		if err != nil {
			return err
		}
		ok = true
		return json.Unmarshal(val, &st)
	})
	return
}

func (s *DiskStore) DeleteSettings(clientID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(settingsKey(clientID))
	})
}

// ClientID returns the client identifier saved with SaveClientID, or "" if none.
func (s *DiskStore) ClientID() (string, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(clientIDKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		val, err := item.Value()
		if err != nil {
			return err
		}
		id = string(val)
		return nil
	})
	return id, err
}

func (s *DiskStore) SaveClientID(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(clientIDKey, []byte(id))
	})
}
