package indexer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/codeindex-dev/codeindex/internal/tracker"
	"github.com/codeindex-dev/codeindex/internal/trie"
)

// indexFileName and metadataFileName are the on-disk artefacts index.db
// and metadata.db; they hold the trie's and the change
// tracker's state as JSON rather than a pickled blob, written the same
// atomic way as every other persisted artefact here: a sibling .tmp path,
// then a rename.
const (
	indexFileName    = "index.db"
	metadataFileName = "metadata.db"
)

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// persistTrie snapshots every record in t and writes it atomically to
// stateDir/index.db.
func persistTrie(stateDir string, t *trie.Trie) error {
	records := t.AllFiles()
	flat := make([]trie.FileRecord, len(records))
	for i, r := range records {
		flat[i] = *r
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(stateDir, indexFileName), data)
}

// loadTrie restores t from stateDir/index.db, if present. A missing file
// is not an error: it means no refresh has ever completed.
func loadTrie(stateDir string, t *trie.Trie) error {
	data, err := os.ReadFile(filepath.Join(stateDir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var flat []trie.FileRecord
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	for _, r := range flat {
		t.AddFile(r)
	}
	return nil
}

// persistTracker snapshots tr and writes it atomically to
// stateDir/metadata.db.
func persistTracker(stateDir string, tr *tracker.Tracker) error {
	data, err := json.Marshal(tr.Snapshot())
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(stateDir, metadataFileName), data)
}

// loadTracker restores tr from stateDir/metadata.db, if present.
func loadTracker(stateDir string, tr *tracker.Tracker) error {
	data, err := os.ReadFile(filepath.Join(stateDir, metadataFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var records map[string]tracker.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	tr.Restore(records)
	return nil
}
