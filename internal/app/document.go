package app

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/undotree/internal/engine"
)

// Document is an open engine with a display name.
type Document struct {
	// Name is the display name. Names need not be unique.
	Name string

	// Engine holds the text and its history.
	Engine *engine.Engine
}

// ID returns the engine's identifier.
func (d *Document) ID() uuid.UUID {
	return d.Engine.ID()
}

// Content returns the full document content.
func (d *Document) Content() string {
	return d.Engine.Text()
}

// IsModified reports whether the document differs from its saved state.
func (d *Document) IsModified() bool {
	return d.Engine.IsModified()
}

// DocumentManager tracks open documents in open order.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]*Document
	active    *Document
	order     []uuid.UUID

	onClose func(*Document)
}

// NewDocumentManager creates a new document manager. onClose, if non-nil,
// is called for every document removed by Close or CloseAll.
func NewDocumentManager(onClose func(*Document)) *DocumentManager {
	return &DocumentManager{
		documents: make(map[uuid.UUID]*Document),
		onClose:   onClose,
	}
}

// Add registers doc and makes it active.
func (dm *DocumentManager) Add(doc *Document) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	id := doc.ID()
	if _, exists := dm.documents[id]; !exists {
		dm.order = append(dm.order, id)
	}
	dm.documents[id] = doc
	dm.active = doc
}

// Active returns the active document (may be nil).
func (dm *DocumentManager) Active() *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.active
}

// SetActive sets the active document.
func (dm *DocumentManager) SetActive(id uuid.UUID) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[id]
	if !ok {
		return ErrDocumentNotFound
	}
	dm.active = doc
	return nil
}

// Get returns a document by ID.
func (dm *DocumentManager) Get(id uuid.UUID) (*Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, ok := dm.documents[id]
	return doc, ok
}

// Find returns the first open document with the given name.
func (dm *DocumentManager) Find(name string) (*Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, id := range dm.order {
		if doc := dm.documents[id]; doc.Name == name {
			return doc, true
		}
	}
	return nil, false
}

// All returns all documents in open order.
func (dm *DocumentManager) All() []*Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	docs := make([]*Document, 0, len(dm.order))
	for _, id := range dm.order {
		docs = append(docs, dm.documents[id])
	}
	return docs
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}

// DirtyDocuments returns documents with unsaved changes.
func (dm *DocumentManager) DirtyDocuments() []*Document {
	var dirty []*Document
	for _, doc := range dm.All() {
		if doc.IsModified() {
			dirty = append(dirty, doc)
		}
	}
	return dirty
}

// HasDirty returns true if any document has unsaved changes.
func (dm *DocumentManager) HasDirty() bool {
	return len(dm.DirtyDocuments()) > 0
}

// Close removes a document. If it was active, the most recently opened
// remaining document becomes active.
func (dm *DocumentManager) Close(id uuid.UUID) error {
	dm.mu.Lock()
	doc, exists := dm.documents[id]
	if !exists {
		dm.mu.Unlock()
		return ErrDocumentNotFound
	}

	delete(dm.documents, id)
	if i := slices.Index(dm.order, id); i >= 0 {
		dm.order = slices.Delete(dm.order, i, i+1)
	}
	if dm.active == doc {
		dm.active = nil
		if n := len(dm.order); n > 0 {
			dm.active = dm.documents[dm.order[n-1]]
		}
	}
	dm.mu.Unlock()

	if dm.onClose != nil {
		dm.onClose(doc)
	}
	return nil
}

// CloseAll removes every document.
func (dm *DocumentManager) CloseAll() {
	for _, doc := range dm.All() {
		_ = dm.Close(doc.ID())
	}
}
