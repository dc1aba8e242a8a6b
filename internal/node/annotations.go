package node

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Annotation is implemented by the annotation variants that can appear
// on a top-level node.
type Annotation interface {
	ID() string
	Dirty() bool
	Load(d *AnnotationDelta) error
	Save(clean bool) *AnnotationDelta
}

type annotationBase struct {
	dirty bool
	id    string
}

func newAnnotationBase() annotationBase {
	return annotationBase{id: uuid.NewString()}
}

func (a *annotationBase) ID() string  { return a.id }
func (a *annotationBase) Dirty() bool { return a.dirty }

func (a *annotationBase) load(d *AnnotationDelta) {
	if d.ID != "" {
		a.id = d.ID
	}
	a.dirty = d.Dirty
}

func (a *annotationBase) save(clean bool) *AnnotationDelta {
	d := &AnnotationDelta{ID: a.id}
	if clean {
		a.dirty = false
	} else {
		d.Dirty = a.dirty
	}
	return d
}

// WebLink is a link annotation.
type WebLink struct {
	annotationBase
	title         string
	url           string
	imageURL      *string
	provenanceURL string
	description   string
}

func NewWebLink() *WebLink {
	return &WebLink{annotationBase: newAnnotationBase()}
}

func (w *WebLink) Title() string { return w.title }

func (w *WebLink) SetTitle(value string) {
	w.title = value
	w.dirty = true
}

func (w *WebLink) URL() string { return w.url }

func (w *WebLink) SetURL(value string) {
	w.url = value
	w.dirty = true
}

// ImageURL returns the preview image url, or "" when none is known.
func (w *WebLink) ImageURL() string {
	if w.imageURL == nil {
		return ""
	}
	return *w.imageURL
}

func (w *WebLink) SetImageURL(value string) {
	w.imageURL = &value
	w.dirty = true
}

func (w *WebLink) Description() string { return w.description }

func (w *WebLink) SetDescription(value string) {
	w.description = value
	w.dirty = true
}

func (w *WebLink) Load(d *AnnotationDelta) error {
	if d.WebLink == nil {
		return parseError("webLink annotation", d, fmt.Errorf("missing webLink body"))
	}
	w.annotationBase.load(d)
	w.title = d.WebLink.Title
	w.url = d.WebLink.URL
	if d.WebLink.ImageURL != nil {
		w.imageURL = d.WebLink.ImageURL
	}
	w.provenanceURL = d.WebLink.ProvenanceURL
	w.description = d.WebLink.Description
	return nil
}

func (w *WebLink) Save(clean bool) *AnnotationDelta {
	d := w.annotationBase.save(clean)
	d.WebLink = &WebLinkDelta{
		Title:         w.title,
		URL:           w.url,
		ImageURL:      w.imageURL,
		ProvenanceURL: w.provenanceURL,
		Description:   w.description,
	}
	return d
}

// Category is a topic category annotation.
type Category struct {
	annotationBase
	category CategoryValue
}

func NewCategory(value CategoryValue) *Category {
	return &Category{annotationBase: newAnnotationBase(), category: value}
}

func (c *Category) Category() CategoryValue { return c.category }

func (c *Category) SetCategory(value CategoryValue) {
	c.category = value
	c.dirty = true
}

func (c *Category) Load(d *AnnotationDelta) error {
	if d.TopicCategory == nil {
		return parseError("category annotation", d, fmt.Errorf("missing topicCategory body"))
	}
	c.annotationBase.load(d)
	c.category = CategoryValue(d.TopicCategory.Category)
	return nil
}

func (c *Category) Save(clean bool) *AnnotationDelta {
	d := c.annotationBase.save(clean)
	d.TopicCategory = &CategoryDelta{Category: string(c.category)}
	return d
}

// TaskAssist is a task suggestion annotation.
type TaskAssist struct {
	annotationBase
	suggest string
}

func NewTaskAssist() *TaskAssist {
	return &TaskAssist{annotationBase: newAnnotationBase()}
}

func (t *TaskAssist) Suggest() string { return t.suggest }

func (t *TaskAssist) SetSuggest(value string) {
	t.suggest = value
	t.dirty = true
}

func (t *TaskAssist) Load(d *AnnotationDelta) error {
	if d.TaskAssist == nil {
		return parseError("taskAssist annotation", d, fmt.Errorf("missing taskAssist body"))
	}
	t.annotationBase.load(d)
	t.suggest = d.TaskAssist.SuggestType
	return nil
}

func (t *TaskAssist) Save(clean bool) *AnnotationDelta {
	d := t.annotationBase.save(clean)
	d.TaskAssist = &TaskAssistDelta{SuggestType: t.suggest}
	return d
}

// Context is a grouping annotation. Its entries are carried opaquely so
// payloads this client does not model still round-trip.
type Context struct {
	annotationBase
	entries map[string]json.RawMessage
}

func NewContext() *Context {
	return &Context{annotationBase: newAnnotationBase(), entries: map[string]json.RawMessage{}}
}

func (c *Context) Entries() map[string]json.RawMessage { return c.entries }

func (c *Context) SetEntry(key string, value json.RawMessage) {
	c.entries[key] = value
	c.dirty = true
}

func (c *Context) Load(d *AnnotationDelta) error {
	if d.Context == nil {
		return parseError("context annotation", d, fmt.Errorf("missing context body"))
	}
	c.annotationBase.load(d)
	c.entries = map[string]json.RawMessage{}
	for key, value := range d.Context {
		c.entries[key] = value
	}
	return nil
}

func (c *Context) Save(clean bool) *AnnotationDelta {
	d := c.annotationBase.save(clean)
	d.Context = map[string]json.RawMessage{}
	for key, value := range c.entries {
		d.Context[key] = value
	}
	return d
}

func annotationFromDelta(d AnnotationDelta) Annotation {
	var a Annotation
	switch {
	case d.WebLink != nil:
		a = NewWebLink()
	case d.TopicCategory != nil:
		a = NewCategory("")
	case d.TaskAssist != nil:
		a = NewTaskAssist()
	case d.Context != nil:
		a = NewContext()
	default:
		log.Warn("unknown annotation type", zap.String("annotation_id", d.ID))
		return nil
	}
	if err := a.Load(&d); err != nil {
		log.Warn("discarded malformed annotation", zap.String("annotation_id", d.ID), zap.Error(err))
		return nil
	}
	return a
}

// Annotations is the annotation container on a top-level node.
type Annotations struct {
	dirty   bool
	entries map[string]Annotation
}

func NewAnnotations() *Annotations {
	return &Annotations{entries: map[string]Annotation{}}
}

func (a *Annotations) Len() int { return len(a.entries) }

// All returns the annotations in unspecified order.
func (a *Annotations) All() []Annotation {
	out := make([]Annotation, 0, len(a.entries))
	for _, entry := range a.entries {
		out = append(out, entry)
	}
	return out
}

// Links returns all web link annotations.
func (a *Annotations) Links() []*WebLink {
	var out []*WebLink
	for _, entry := range a.entries {
		if link, ok := entry.(*WebLink); ok {
			out = append(out, link)
		}
	}
	return out
}

// Category returns the node's topic category, or "" when none is set.
func (a *Annotations) Category() CategoryValue {
	node := a.categoryNode()
	if node == nil {
		return ""
	}
	return node.Category()
}

// SetCategory replaces the topic category; "" removes it.
func (a *Annotations) SetCategory(value CategoryValue) {
	node := a.categoryNode()
	if value == "" {
		if node != nil {
			delete(a.entries, node.ID())
		}
	} else {
		if node == nil {
			node = NewCategory(value)
			a.entries[node.ID()] = node
		}
		node.SetCategory(value)
	}
	a.dirty = true
}

func (a *Annotations) categoryNode() *Category {
	for _, entry := range a.entries {
		if category, ok := entry.(*Category); ok {
			return category
		}
	}
	return nil
}

// Append adds an annotation.
func (a *Annotations) Append(annotation Annotation) {
	a.entries[annotation.ID()] = annotation
	a.dirty = true
}

// Remove drops an annotation.
func (a *Annotations) Remove(annotation Annotation) {
	delete(a.entries, annotation.ID())
	a.dirty = true
}

func (a *Annotations) Dirty() bool {
	if a.dirty {
		return true
	}
	for _, entry := range a.entries {
		if entry.Dirty() {
			return true
		}
	}
	return false
}

func (a *Annotations) Load(d *AnnotationsDelta) error {
	a.entries = map[string]Annotation{}
	a.dirty = d.Dirty
	for _, raw := range d.Annotations {
		annotation := annotationFromDelta(raw)
		if annotation == nil {
			continue
		}
		a.entries[annotation.ID()] = annotation
	}
	return nil
}

func (a *Annotations) Save(clean bool) *AnnotationsDelta {
	d := &AnnotationsDelta{Kind: wireKindAnnotation}
	for _, entry := range a.entries {
		d.Annotations = append(d.Annotations, *entry.Save(clean))
	}
	if clean {
		a.dirty = false
	} else {
		d.Dirty = a.dirty
	}
	return d
}
