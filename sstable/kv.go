package sstable

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// KV is an ordered list of key-value pairs, one "key,value" line per
// pair. Used for the persisted training configuration and tag maps.
type KV struct {
	Keys []string

	byKey map[string]string
}

func NewKV() *KV {
	return &KV{byKey: make(map[string]string)}
}

func (this *KV) Set(key, value string) {
	if _, ok := this.byKey[key]; !ok {
		this.Keys = append(this.Keys, key)
	}
	this.byKey[key] = value
}

func (this *KV) Get(key string) (string, bool) {
	v, ok := this.byKey[key]
	return v, ok
}

// Write serializes the pairs in insertion order.
func (this *KV) Write(fn string) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrap(err, "sstable: create")
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, k := range this.Keys {
		fmt.Fprintf(w, "%s,%s\n", k, this.byKey[k])
	}
	return errors.Wrap(w.Flush(), "sstable: flush")
}

// ReadKV loads a pair file. Values may themselves contain commas, only
// the first comma separates.
func ReadKV(fn string) (*KV, error) {
	file, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "sstable: open")
	}
	defer file.Close()

	kv := NewKV()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		txt := scanner.Text()
		if txt == "" {
			continue
		}
		sep := strings.IndexByte(txt, ',')
		if sep < 0 {
			return nil, errors.Errorf("sstable: %s corrupted, bad pair: %s", fn, txt)
		}
		kv.Set(txt[:sep], txt[sep+1:])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "sstable: scan")
	}
	return kv, nil
}
