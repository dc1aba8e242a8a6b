package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/registry"
)

var (
	errMissingTransport    = errors.New("sync: transport is required")
	errMissingNodeRegistry = errors.New("sync: node registry is required")
	errMissingLabels       = errors.New("sync: label registry is required")
)

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Transport Transport
	Nodes     *registry.NodeRegistry
	Labels    *registry.LabelRegistry
	Logger    *zap.Logger
	Clock     func() time.Time
	SessionID string
	Platform  string
}

// Engine orchestrates the push-pull loop. Single-threaded: callers
// mutate nodes and labels on the same logical thread that later calls
// Sync, and Sync runs to completion.
type Engine struct {
	log        *zap.Logger
	transport  Transport
	nodes      *registry.NodeRegistry
	labels     *registry.LabelRegistry
	reconciler *Reconciler
	clock      func() time.Time
	sessionID  string
	platform   string
	version    string
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Transport == nil {
		return nil, errMissingTransport
	}
	if cfg.Nodes == nil {
		return nil, errMissingNodeRegistry
	}
	if cfg.Labels == nil {
		return nil, errMissingLabels
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	platform := cfg.Platform
	if platform == "" {
		platform = "ANDROID"
	}
	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = "s--" + uuid.NewString()
	}
	return &Engine{
		log:        logger,
		transport:  cfg.Transport,
		nodes:      cfg.Nodes,
		labels:     cfg.Labels,
		reconciler: NewReconciler(cfg.Nodes, cfg.Labels, logger),
		clock:      clock,
		sessionID:  sessionID,
		platform:   platform,
	}, nil
}

// Version returns the current version token, or "" before the first
// successful sync.
func (e *Engine) Version() string { return e.version }

// Nodes returns the node registry the engine drives.
func (e *Engine) Nodes() *registry.NodeRegistry { return e.nodes }

// Labels returns the label registry the engine drives.
func (e *Engine) Labels() *registry.LabelRegistry { return e.labels }

// Sync runs the exchange loop until the server reports no more pages.
// With resync set, all local state is discarded first and the full tree
// is pulled from the beginning of the change history.
func (e *Engine) Sync(ctx context.Context, resync bool) error {
	if resync {
		e.nodes.Reset()
		e.labels.Reset()
		e.version = ""
	}

	for {
		e.log.Debug("starting sync round", zap.String("version", e.version))

		// Catch children created directly on nodes since the last round.
		e.nodes.Reindex()

		request := ChangeRequest{
			TargetVersion:   e.version,
			Nodes:           []node.Delta{},
			ClientTimestamp: node.FormatTime(e.clock()),
			RequestHeader: RequestHeader{
				ClientSessionID: e.sessionID,
				ClientPlatform:  e.platform,
				Capabilities:    defaultCapabilities,
			},
		}
		for _, dirty := range e.nodes.DirtyNodes() {
			request.Nodes = append(request.Nodes, *dirty.Save(true))
		}
		if e.labels.Dirty() {
			request.UserInfo = &UserInfo{Labels: e.labels.Deltas(true)}
		}

		response, err := e.transport.Changes(ctx, request)
		if err != nil {
			return err
		}

		// Fatal flags are checked before anything is applied.
		if response.ForceFullResync {
			return ErrResyncRequired
		}
		if response.UpgradeRecommended {
			return ErrUpgradeRequired
		}

		// Labels first, so the back-reference pass sees labels that
		// arrived in the same page as the nodes referencing them.
		if response.UserInfo != nil {
			e.reconciler.ApplyLabels(response.UserInfo.Labels)
		}
		if len(response.Nodes) > 0 {
			if err := e.reconciler.ApplyNodes(response.Nodes); err != nil {
				return err
			}
		}

		e.version = response.ToVersion
		e.log.Debug("finished sync round", zap.String("version", e.version), zap.Bool("truncated", response.Truncated))

		if !response.Truncated {
			return nil
		}
	}
}

// CreateNote builds a note, registers it, and marks it for the next
// push.
func (e *Engine) CreateNote(title string, text string) (*node.Note, error) {
	n := node.NewNote()
	if err := e.nodes.Add(n); err != nil {
		return nil, err
	}
	n.SetTitle(title)
	if text != "" {
		n.SetText(text)
	}
	return n, nil
}

// ListEntry seeds one item of a new list.
type ListEntry struct {
	Text    string
	Checked bool
}

// CreateList builds a list with the given items, registers it, and
// marks it for the next push. Items receive descending sort values so
// they display in the given order.
func (e *Engine) CreateList(title string, entries []ListEntry) (*node.List, error) {
	l := node.NewList()
	if err := e.nodes.Add(l); err != nil {
		return nil, err
	}
	l.SetTitle(title)
	sortValue := node.NewListSort()
	for _, entry := range entries {
		l.AddWithSort(entry.Text, entry.Checked, sortValue)
		sortValue -= node.ListSortStep
	}
	return l, nil
}

// CreateLabel registers a new label for the next push. Label names are
// unique, compared case-insensitively.
func (e *Engine) CreateLabel(name string) (*node.Label, error) {
	if existing := e.labels.Find(name); existing != nil {
		return nil, fmt.Errorf("sync: label %q already exists", name)
	}
	return e.labels.Create(name), nil
}
