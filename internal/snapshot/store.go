// Package snapshot persists engine state between runs so a restart can
// resume from the last version token instead of pulling everything.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/sync"
)

var errMissingPath = errors.New("snapshot path is required")

// stateRecord is the single-row table holding the version token.
type stateRecord struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	Version       string `gorm:"column:version;size:190;not null"`
	SavedAtSecond int64  `gorm:"column:saved_at_s;not null;autoUpdateTime"`
}

func (stateRecord) TableName() string {
	return "sync_state"
}

// nodeRecord stores one node delta. Position preserves the dump order,
// which keeps parents ahead of their children on reload.
type nodeRecord struct {
	NodeID   string `gorm:"column:node_id;primaryKey;size:190;not null"`
	Position int64  `gorm:"column:position;not null;index:idx_snapshot_nodes_position"`
	Payload  string `gorm:"column:payload;type:text;not null"`
}

func (nodeRecord) TableName() string {
	return "snapshot_nodes"
}

type labelRecord struct {
	MainID   string `gorm:"column:main_id;primaryKey;size:190;not null"`
	Position int64  `gorm:"column:position;not null"`
	Payload  string `gorm:"column:payload;type:text;not null"`
}

func (labelRecord) TableName() string {
	return "snapshot_labels"
}

// Store persists sync snapshots in a local SQLite database.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open establishes the SQLite connection and performs schema migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errMissingPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&stateRecord{}, &nodeRecord{}, &labelRecord{}); err != nil {
		return nil, err
	}

	logger.Info("snapshot store initialized", zap.String("path", path))
	return &Store{db: db, log: logger}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save replaces the stored snapshot atomically.
func (s *Store) Save(snapshot sync.Snapshot) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&stateRecord{}, &nodeRecord{}, &labelRecord{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&stateRecord{ID: 1, Version: snapshot.Version}).Error; err != nil {
			return err
		}

		for position, delta := range snapshot.Nodes {
			payload, err := json.Marshal(delta)
			if err != nil {
				return fmt.Errorf("encode node %s: %w", delta.ID, err)
			}
			record := nodeRecord{NodeID: delta.ID, Position: int64(position), Payload: string(payload)}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		for position, label := range snapshot.Labels {
			payload, err := json.Marshal(label)
			if err != nil {
				return fmt.Errorf("encode label %s: %w", label.MainID, err)
			}
			record := labelRecord{MainID: label.MainID, Position: int64(position), Payload: string(payload)}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads the stored snapshot. The boolean reports whether one was
// ever saved.
func (s *Store) Load() (sync.Snapshot, bool, error) {
	var state stateRecord
	err := s.db.Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sync.Snapshot{}, false, nil
	}
	if err != nil {
		return sync.Snapshot{}, false, err
	}

	snapshot := sync.Snapshot{Version: state.Version, Nodes: []node.Delta{}, Labels: []node.LabelDelta{}}

	var nodeRecords []nodeRecord
	if err := s.db.Order("position").Find(&nodeRecords).Error; err != nil {
		return sync.Snapshot{}, false, err
	}
	for _, record := range nodeRecords {
		var delta node.Delta
		if err := json.Unmarshal([]byte(record.Payload), &delta); err != nil {
			return sync.Snapshot{}, false, fmt.Errorf("decode node %s: %w", record.NodeID, err)
		}
		snapshot.Nodes = append(snapshot.Nodes, delta)
	}

	var labelRecords []labelRecord
	if err := s.db.Order("position").Find(&labelRecords).Error; err != nil {
		return sync.Snapshot{}, false, err
	}
	for _, record := range labelRecords {
		var label node.LabelDelta
		if err := json.Unmarshal([]byte(record.Payload), &label); err != nil {
			return sync.Snapshot{}, false, fmt.Errorf("decode label %s: %w", record.MainID, err)
		}
		snapshot.Labels = append(snapshot.Labels, label)
	}

	s.log.Debug("snapshot loaded",
		zap.String("version", snapshot.Version),
		zap.Int("nodes", len(snapshot.Nodes)),
		zap.Int("labels", len(snapshot.Labels)))
	return snapshot, true, nil
}
