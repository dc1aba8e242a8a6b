package node

import (
	"time"

	"go.uber.org/zap"
)

// BlobPayload is implemented by the typed media descriptor variants a
// Blob node can wrap.
type BlobPayload interface {
	BlobKind() BlobKind
	Dirty() bool
	Load(d *BlobDelta) error
	Save(clean bool) *BlobDelta
}

type blobBase struct {
	dirty    bool
	kind     BlobKind
	blobID   string
	mediaID  string
	mimetype string
}

func (b *blobBase) BlobKind() BlobKind { return b.kind }
func (b *blobBase) Dirty() bool        { return b.dirty }

func (b *blobBase) load(d *BlobDelta) error {
	if !validBlobKind(d.Type) {
		return parseError("blob", d, errMissingField("type"))
	}
	b.dirty = d.Dirty
	b.blobID = d.BlobID
	b.mediaID = d.MediaID
	b.mimetype = d.Mimetype
	return nil
}

func (b *blobBase) save(clean bool) *BlobDelta {
	d := &BlobDelta{
		Kind:     wireKindBlob,
		Type:     string(b.kind),
		BlobID:   b.blobID,
		MediaID:  b.mediaID,
		Mimetype: b.mimetype,
	}
	if clean {
		b.dirty = false
	} else {
		d.Dirty = b.dirty
	}
	return d
}

// AudioBlob describes an audio recording.
type AudioBlob struct {
	blobBase
	length int64
}

func NewAudioBlob() *AudioBlob {
	return &AudioBlob{blobBase: blobBase{kind: BlobAudio}}
}

// Length returns the recording length in milliseconds.
func (a *AudioBlob) Length() int64 { return a.length }

func (a *AudioBlob) Load(d *BlobDelta) error {
	if err := a.blobBase.load(d); err != nil {
		return err
	}
	a.length = d.Length
	return nil
}

func (a *AudioBlob) Save(clean bool) *BlobDelta {
	d := a.blobBase.save(clean)
	d.Length = a.length
	return d
}

// ImageBlob describes an image attachment.
type ImageBlob struct {
	blobBase
	uploaded         bool
	width            int64
	height           int64
	byteSize         int64
	extractedText    string
	extractionStatus string
}

func NewImageBlob() *ImageBlob {
	return &ImageBlob{blobBase: blobBase{kind: BlobImage}}
}

func (i *ImageBlob) Uploaded() bool        { return i.uploaded }
func (i *ImageBlob) Width() int64          { return i.width }
func (i *ImageBlob) Height() int64         { return i.height }
func (i *ImageBlob) ByteSize() int64       { return i.byteSize }
func (i *ImageBlob) ExtractedText() string { return i.extractedText }

func (i *ImageBlob) Load(d *BlobDelta) error {
	if err := i.blobBase.load(d); err != nil {
		return err
	}
	i.uploaded = d.IsUploaded != nil && *d.IsUploaded
	i.width = d.Width
	i.height = d.Height
	i.byteSize = d.ByteSize
	i.extractedText = d.ExtractedText
	i.extractionStatus = d.ExtractionStatus
	return nil
}

func (i *ImageBlob) Save(clean bool) *BlobDelta {
	d := i.blobBase.save(clean)
	d.Width = i.width
	d.Height = i.height
	d.ByteSize = i.byteSize
	d.ExtractedText = i.extractedText
	d.ExtractionStatus = i.extractionStatus
	return d
}

// DrawingBlob describes a drawing attachment.
type DrawingBlob struct {
	blobBase
	extractedText    string
	extractionStatus string
	info             *DrawingInfo
}

func NewDrawingBlob() *DrawingBlob {
	return &DrawingBlob{blobBase: blobBase{kind: BlobDrawing}}
}

func (b *DrawingBlob) ExtractedText() string { return b.extractedText }

// Info returns the drawing metadata, or nil when the server has not
// provided any.
func (b *DrawingBlob) Info() *DrawingInfo { return b.info }

func (b *DrawingBlob) Load(d *BlobDelta) error {
	if err := b.blobBase.load(d); err != nil {
		return err
	}
	b.extractedText = d.ExtractedText
	b.extractionStatus = d.ExtractionStatus
	b.info = nil
	if d.DrawingInfo != nil {
		info := &DrawingInfo{Snapshot: NewImageBlob()}
		if err := info.load(d.DrawingInfo); err != nil {
			return err
		}
		b.info = info
	}
	return nil
}

func (b *DrawingBlob) Save(clean bool) *BlobDelta {
	d := b.blobBase.save(clean)
	d.ExtractedText = b.extractedText
	d.ExtractionStatus = b.extractionStatus
	if b.info != nil {
		d.DrawingInfo = b.info.save(clean)
	}
	return d
}

// DrawingInfo is the metadata block attached to a drawing blob.
type DrawingInfo struct {
	DrawingID           string
	Snapshot            *ImageBlob
	snapshotFingerprint string
	thumbnailGenerated  time.Time
	inkHash             string
	snapshotProtoFprint string
}

func (i *DrawingInfo) load(d *DrawingInfoDelta) error {
	i.DrawingID = d.DrawingID
	if d.Snapshot != nil {
		if err := i.Snapshot.Load(d.Snapshot); err != nil {
			return err
		}
	}
	i.snapshotFingerprint = d.SnapshotFingerprint
	i.thumbnailGenerated = epoch
	if d.ThumbnailGeneratedTime != "" {
		generated, err := ParseTime(d.ThumbnailGeneratedTime)
		if err != nil {
			return parseError("drawingInfo", d, err)
		}
		i.thumbnailGenerated = generated
	}
	i.inkHash = d.InkHash
	i.snapshotProtoFprint = d.SnapshotProtoFprint
	return nil
}

func (i *DrawingInfo) save(clean bool) *DrawingInfoDelta {
	return &DrawingInfoDelta{
		DrawingID:              i.DrawingID,
		Snapshot:               i.Snapshot.Save(clean),
		SnapshotFingerprint:    i.snapshotFingerprint,
		ThumbnailGeneratedTime: FormatTime(i.thumbnailGenerated),
		InkHash:                i.inkHash,
		SnapshotProtoFprint:    i.snapshotProtoFprint,
	}
}

func blobPayloadFromDelta(d *BlobDelta) BlobPayload {
	if d == nil {
		return nil
	}
	var payload BlobPayload
	switch BlobKind(d.Type) {
	case BlobAudio:
		payload = NewAudioBlob()
	case BlobImage:
		payload = NewImageBlob()
	case BlobDrawing:
		payload = NewDrawingBlob()
	default:
		log.Warn("unknown blob type", zap.String("type", d.Type))
		return nil
	}
	if err := payload.Load(d); err != nil {
		log.Warn("discarded malformed blob payload", zap.String("type", d.Type), zap.Error(err))
		return nil
	}
	return payload
}

// Blob is a node wrapping one typed media descriptor.
type Blob struct {
	Core
	payload BlobPayload
}

func NewBlob(parentID string) *Blob {
	return &Blob{Core: newCore(KindBlob, parentID)}
}

// Payload returns the media descriptor, or nil when none is attached.
func (b *Blob) Payload() BlobPayload { return b.payload }

func (b *Blob) SetPayload(payload BlobPayload) {
	b.payload = payload
	b.Touch(true)
}

func (b *Blob) Dirty() bool {
	if b.Core.Dirty() {
		return true
	}
	return b.payload != nil && b.payload.Dirty()
}

func (b *Blob) Load(d *Delta) error {
	if err := b.Core.load(d); err != nil {
		return err
	}
	b.payload = blobPayloadFromDelta(d.Blob)
	return nil
}

func (b *Blob) Save(clean bool) *Delta {
	d := b.Core.save(clean)
	if b.payload != nil {
		d.Blob = b.payload.Save(clean)
	}
	return d
}
