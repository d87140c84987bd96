package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RoanBrand/gomq/internal/config"
)

func loadConfig(t *testing.T, js string) *config.Config {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(js), 0644); err != nil {
		t.Fatal(err)
	}
	var c config.Config
	if err := c.LoadFromFile(p); err != nil {
		t.Fatal(err)
	}
	return &c
}

func TestPrepareSettingsWithoutStore(t *testing.T) {
	c := loadConfig(t, `{"broker": {"host": "h", "client_id": "dev"}, "auth": {"username": "u", "password": "p"}}`)
	id, st, err := prepareSettings(c)
	if err != nil {
		t.Fatal(err)
	}
	if id != "dev" || string(st.Username) != "u" || string(st.Password) != "p" || st.WillTopic != nil {
		t.Fatal(id, st)
	}
}

func TestPrepareSettingsPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	js := `{"broker": {"host": "h"}, "store_dir": "` + filepath.ToSlash(dir) + `",
		"will": {"topic": "status", "payload": "offline", "qos": 1}}`

	c := loadConfig(t, js)
	id1, st, err := prepareSettings(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(st.WillTopic) != "status" {
		t.Fatal(st)
	}

	// restart without will in config: same generated id, persisted will
	c = loadConfig(t, `{"broker": {"host": "h"}, "store_dir": "`+filepath.ToSlash(dir)+`"}`)
	id2, st, err := prepareSettings(c)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatal("generated client id not kept:", id1, id2)
	}
	if string(st.WillTopic) != "status" || string(st.WillPayload) != "offline" || st.WillQoS != 1 {
		t.Fatal(st)
	}
}

func TestSetupLogging(t *testing.T) {
	c := loadConfig(t, `{"broker": {"host": "h"}, "log": {"level": "verbose"}}`)
	if err := setupLogging(c); err == nil {
		t.Fatal("expected invalid level error")
	}
}
