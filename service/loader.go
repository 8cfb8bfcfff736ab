package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/idaliopessoa/idDigital/model"
	"github.com/idaliopessoa/idDigital/pkg/logger"
	"github.com/idaliopessoa/idDigital/pkg/sentinel"
)

// IdentityGateway is the remote side of the pipeline: token exchange plus raw
// schedule retrieval. Satisfied by CertfyService.
type IdentityGateway interface {
	Authenticate(ctx context.Context) (string, error)
	FetchSchedule(ctx context.Context, documentID, token string) (*model.SchedulePayload, error)
}

// AssetMirror copies capture images into local object storage. Satisfied by
// AssetService.
type AssetMirror interface {
	MirrorImage(ctx context.Context, documentID, kind, sourceURL string) (string, error)
}

// DocumentLoader runs the cache-first document lookup:
//
//	Exists -> hit:  Get
//	       -> miss: Authenticate -> FetchSchedule -> TransformSchedule
//	                -> Save -> Get (consistency re-read)
//
// Steps are strictly sequential and nothing is retried; a failed step fails
// the whole lookup and the caller may re-invoke it, which re-runs the cache
// check first. The cache is only written after a fully successful transform,
// so a remote failure can never corrupt it.
type DocumentLoader struct {
	store   DocumentStore
	gateway IdentityGateway
	assets  AssetMirror // optional; nil disables mirroring
	flights singleflight.Group
	now     func() time.Time
}

func NewDocumentLoader(store DocumentStore, gateway IdentityGateway, assets AssetMirror) *DocumentLoader {
	return &DocumentLoader{
		store:   store,
		gateway: gateway,
		assets:  assets,
		now:     time.Now,
	}
}

// Load returns the display-ready record for a document id, fetching and
// caching it on first sight. Concurrent lookups for the same id share one
// flight, so a cold id is fetched from Certfy at most once at a time.
func (l *DocumentLoader) Load(ctx context.Context, documentID string) (*model.DocumentRecord, error) {
	ctx = context.WithValue(ctx, logger.DocumentIDKey, documentID)

	result, err, _ := l.flights.Do(documentID, func() (any, error) {
		return l.load(ctx, documentID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.DocumentRecord), nil
}

func (l *DocumentLoader) load(ctx context.Context, documentID string) (*model.DocumentRecord, error) {
	exists, err := l.store.Exists(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if exists {
		logger.Debug(ctx, "document found in cache")
		record, err := l.store.Get(ctx, documentID)
		if err != nil {
			if isNotFound(err) {
				// Existence said yes, read said no. A store anomaly, not
				// something a retry inside this lookup can fix.
				return nil, fmt.Errorf("%w: document %s vanished after existence check", sentinel.ErrInconsistentCache, documentID)
			}
			return nil, err
		}
		return record, nil
	}

	logger.Info(ctx, "document not cached, fetching from upstream")

	token, err := l.gateway.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := l.gateway.FetchSchedule(ctx, documentID, token)
	if err != nil {
		return nil, err
	}

	record := TransformSchedule(payload, documentID, l.now())

	l.mirrorAssets(ctx, documentID, record)

	if err := l.store.Save(ctx, documentID, record); err != nil {
		return nil, err
	}

	// Re-read after write so the caller gets byte-for-byte what a later
	// warm path will return, store-assigned CreatedAt included.
	stored, err := l.store.Get(ctx, documentID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: document %s missing after write", sentinel.ErrInconsistentCache, documentID)
		}
		return nil, err
	}

	logger.Info(ctx, "document fetched and cached")
	return stored, nil
}

// mirrorAssets swaps upstream capture URLs for mirrored object names. Mirror
// failures keep the upstream URL and never fail the lookup.
func (l *DocumentLoader) mirrorAssets(ctx context.Context, documentID string, record *model.DocumentRecord) {
	if l.assets == nil {
		return
	}

	if record.FaceImage != "" {
		object, err := l.assets.MirrorImage(ctx, documentID, "face", record.FaceImage)
		if err != nil {
			logger.Warn(ctx, "failed to mirror face image", "error", err)
		} else {
			record.FaceImage = object
		}
	}

	if record.SignatureImage != "" {
		object, err := l.assets.MirrorImage(ctx, documentID, "signature", record.SignatureImage)
		if err != nil {
			logger.Warn(ctx, "failed to mirror signature image", "error", err)
		} else {
			record.SignatureImage = object
		}
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
