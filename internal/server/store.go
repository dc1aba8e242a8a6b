package server

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	stdsync "sync"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/sync"
)

const defaultPageSize = 100

// StoreConfig configures the in-memory note store.
type StoreConfig struct {
	PageSize int
	Logger   *zap.Logger
}

// Store is the server-side note state: every node keyed by its client
// id, a global version counter, and the label set. Changes are answered
// incrementally from the version the client presents.
type Store struct {
	mu       stdsync.Mutex
	log      *zap.Logger
	pageSize int

	version      int64
	nodes        map[string]*storedNode
	labels       []node.LabelDelta
	labelVersion int64
	nextServerID int64

	forceResync  bool
	forceUpgrade bool
}

type storedNode struct {
	delta   node.Delta
	version int64
}

func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Store{
		log:      logger,
		pageSize: pageSize,
		nodes:    map[string]*storedNode{},
	}
}

// SetForceResync makes every later exchange demand a full resync.
func (s *Store) SetForceResync(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceResync = v
}

// SetForceUpgrade makes every later exchange demand a client upgrade.
func (s *Store) SetForceUpgrade(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceUpgrade = v
}

// Exchange applies one client page and answers with everything that
// changed since the version the client presented.
func (s *Store) Exchange(request sync.ChangeRequest) sync.ChangeResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forceResync {
		return sync.ChangeResponse{ToVersion: strconv.FormatInt(s.version, 10), ForceFullResync: true}
	}
	if s.forceUpgrade {
		return sync.ChangeResponse{ToVersion: strconv.FormatInt(s.version, 10), UpgradeRecommended: true}
	}

	from, _ := strconv.ParseInt(request.TargetVersion, 10, 64)

	var conflicts []node.Delta
	for i := range request.Nodes {
		if conflict := s.apply(&request.Nodes[i]); conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}
	if request.UserInfo != nil {
		s.replaceLabels(request.UserInfo.Labels)
	}

	response := sync.ChangeResponse{Nodes: conflicts}

	changed := s.changedSince(from)
	if len(changed) > s.pageSize {
		changed = changed[:s.pageSize]
		response.Truncated = true
		response.ToVersion = strconv.FormatInt(changed[len(changed)-1].version, 10)
	} else {
		response.ToVersion = strconv.FormatInt(s.version, 10)
	}
	for _, stored := range changed {
		response.Nodes = append(response.Nodes, stored.delta)
	}

	if s.labelVersion > from {
		labels := make([]node.LabelDelta, len(s.labels))
		copy(labels, s.labels)
		response.UserInfo = &sync.UserInfo{Labels: labels}
	}
	return response
}

// apply stores one pushed delta. It returns a conflict-marked copy of
// the server's state when the client's base version is stale, and nil
// otherwise.
func (s *Store) apply(d *node.Delta) *node.Delta {
	stored, known := s.nodes[d.ID]

	if known && d.BaseVersion != nil && *d.BaseVersion < stored.version {
		conflict := stored.delta
		conflict.MergeConflict = json.RawMessage(`{"id":"` + d.ID + `"}`)
		s.log.Warn("stale base version",
			zap.String("node_id", d.ID),
			zap.Int64("base_version", *d.BaseVersion),
			zap.Int64("stored_version", stored.version))
		return &conflict
	}

	if d.ParentID == nil {
		// Deletion. Unknown ids are ignored.
		if known {
			s.version++
			stored.delta.ParentID = nil
			stored.delta.BaseVersion = nil
			stored.version = s.version
		}
		return nil
	}

	accepted := *d
	accepted.Dirty = false
	accepted.LabelsDirty = false
	accepted.CollaboratorsDirty = false
	if known {
		accepted.ServerID = stored.delta.ServerID
	} else {
		stored = &storedNode{}
		s.nodes[d.ID] = stored
		s.nextServerID++
		accepted.ServerID = fmt.Sprintf("s:%d", s.nextServerID)
	}

	s.version++
	version := s.version
	accepted.BaseVersion = &version
	stored.delta = accepted
	stored.version = version
	return nil
}

func (s *Store) replaceLabels(labels []node.LabelDelta) {
	s.version++
	s.labelVersion = s.version
	s.labels = make([]node.LabelDelta, 0, len(labels))
	for _, label := range labels {
		label.Dirty = false
		s.labels = append(s.labels, label)
	}
}

func (s *Store) changedSince(from int64) []*storedNode {
	var out []*storedNode
	for _, stored := range s.nodes {
		if stored.version > from {
			out = append(out, stored)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out
}
