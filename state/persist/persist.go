// Package persist binds a snapshot-capable target to atomic file
// storage. Saves are best-effort: the in-memory state is the source
// of truth for the session, storage only warms the next one.
package persist

import (
	"encoding"
	"io"
	"path/filepath"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/extremofile"

	"github.com/vendsim/vendsim/log2"
)

type Stater interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type storage interface {
	Read() ([]byte, error)
	io.Writer
}

type Persist struct {
	sync.Mutex
	log     *log2.Log
	tag     string
	target  Stater
	storage storage
}

// Init with empty root disables storage; Load and Store become no-ops.
func (self *Persist) Init(tag string, target Stater, root string, log *log2.Log) error {
	if tag == "" {
		return errors.New("persist tag is empty")
	}
	self.tag = tag
	self.log = log
	if root == "" {
		self.log.Debugf("persist %s disabled", self.tag)
		return nil
	}
	if target == nil {
		panic("code error persist target nil")
	}
	self.target = target
	self.storage = extremofile.New(extremofile.Config{
		Dir:      filepath.Join(root, tag),
		DirPerm:  0755,
		FilePerm: 0644,
	})
	return nil
}

func (self *Persist) Enabled() bool { return self.storage != nil }

func (self *Persist) Load() error {
	if self.tag == "" {
		panic("code error persist must call .Init() first")
	}
	if self.storage == nil {
		return nil
	}
	self.Lock()
	defer self.Unlock()
	b, err := self.storage.Read()
	if b == nil {
		// nothing stored yet is not an error
		if extremofile.IsCritical(err) {
			return errors.Annotatef(err, "persist %s load", self.tag)
		}
		return nil
	}
	if err != nil {
		self.log.Errorf("persist %s ignore non-critical storage err=%v", self.tag, err)
	}
	return errors.Annotatef(self.target.UnmarshalBinary(b), "persist %s load", self.tag)
}

func (self *Persist) Store() error {
	if self.tag == "" {
		panic("code error persist must call .Init() first")
	}
	if self.storage == nil {
		return nil
	}
	self.Lock()
	defer self.Unlock()
	b, err := self.target.MarshalBinary()
	if err == nil {
		_, err = self.storage.Write(b)
	}
	return errors.Annotatef(err, "persist %s store", self.tag)
}

// StoreOrLog is the fire-and-forget save after mutations. A failed
// write is logged and simply retried on the next mutation.
func (self *Persist) StoreOrLog() {
	if err := self.Store(); err != nil {
		self.log.Errorf("%v", err)
	}
}
