// Package cache keeps display preferences (last resolved station) across restarts.
// Values are advisory: the station is always resolved again at startup.
package cache

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/extremofile"

	"github.com/podline/kiosk/log2"
)

const (
	KeyStationUsername = "stationUsername"
	KeyStationDisplay  = "stationDisplay"
)

const tag = "preference"

type storage interface {
	Read() ([]byte, error)
	io.Writer
}

type Cache struct {
	sync.Mutex
	log     *log2.Log
	values  map[string]string
	storage storage
}

// New cache. Empty root keeps values in memory only.
func New(root string, log *log2.Log) *Cache {
	c := &Cache{log: log, values: make(map[string]string)}
	if root == "" {
		log.Debugf("cache %s disabled", tag)
		return c
	}
	c.storage = extremofile.New(extremofile.Config{
		Dir:      filepath.Join(root, tag),
		DirPerm:  0755,
		FilePerm: 0644,
	})
	return c
}

// Load reads stored values. Missing file is not an error.
func (c *Cache) Load() error {
	if c.storage == nil {
		return nil
	}
	c.Lock()
	defer c.Unlock()
	tbegin := time.Now()
	b, err := c.storage.Read()
	c.log.Debugf("cache %s storage.read duration=%v", tag, time.Since(tbegin))
	if b == nil {
		if err != nil && extremofile.IsCritical(err) {
			return errors.Annotatef(err, "cache %s Load", tag)
		}
		return nil
	}
	if err != nil {
		c.log.Errorf("cache %s ignore non-critical storage err=%v", tag, err)
	}
	values := make(map[string]string)
	if err := json.Unmarshal(b, &values); err != nil {
		return errors.Annotatef(err, "cache %s Load", tag)
	}
	c.values = values
	return nil
}

func (c *Cache) Get(key string) (string, bool) {
	c.Lock()
	defer c.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores value and writes through when value changed.
func (c *Cache) Set(key, value string) error {
	c.Lock()
	defer c.Unlock()
	if old, ok := c.values[key]; ok && old == value {
		return nil
	}
	c.values[key] = value
	return c.store()
}

func (c *Cache) store() error {
	if c.storage == nil {
		return nil
	}
	b, err := json.Marshal(c.values)
	if err == nil {
		tbegin := time.Now()
		_, err = c.storage.Write(b)
		c.log.Debugf("cache %s storage.write duration=%v", tag, time.Since(tbegin))
	}
	return errors.Annotatef(err, "cache %s Store", tag)
}
