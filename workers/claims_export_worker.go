package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"event-reward-system/models"
	"event-reward-system/services"
	"event-reward-system/store"

	"github.com/gosimple/slug"
)

// ObjectUploader is the slice of the object store the exporter needs.
type ObjectUploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ClaimsExportWorker periodically archives newly resolved claims to object
// storage as JSON lines, one object per event per cycle. Export is purely
// observational: it never mutates claims, and the watermark only advances
// after every upload of a cycle succeeded, so a failed cycle is retried whole.
type ClaimsExportWorker struct {
	claims   store.ClaimStore
	catalog  services.EventCatalog
	uploader ObjectUploader

	// watermark of the last fully exported cycle
	lastExport time.Time
}

func NewClaimsExportWorker(claims store.ClaimStore, catalog services.EventCatalog, uploader ObjectUploader) *ClaimsExportWorker {
	return &ClaimsExportWorker{
		claims:     claims,
		catalog:    catalog,
		uploader:   uploader,
		lastExport: time.Now().UTC().Add(-24 * time.Hour),
	}
}

// Run polls until the context is cancelled.
func (w *ClaimsExportWorker) Run(ctx context.Context, interval time.Duration) {
	log.Println("Starting claims export worker...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Claims export worker stopped.")
			return
		case <-ticker.C:
			if err := w.exportOnce(ctx); err != nil {
				log.Printf("❌ [EXPORT] cycle failed: %v", err)
			}
		}
	}
}

func (w *ClaimsExportWorker) exportOnce(ctx context.Context) error {
	mark := time.Now().UTC()

	claims, err := w.claims.ListTerminalUpdatedSince(ctx, w.lastExport)
	if err != nil {
		return fmt.Errorf("failed to list terminal claims: %w", err)
	}
	if len(claims) == 0 {
		return nil
	}

	byEvent := make(map[string][]models.RewardClaim)
	for _, c := range claims {
		byEvent[c.EventID] = append(byEvent[c.EventID], c)
	}

	for eventID, group := range byEvent {
		key := fmt.Sprintf("claims/%s/%s.jsonl",
			w.eventSlug(ctx, eventID), mark.Format("20060102T150405Z"))

		body := make([]byte, 0, len(group)*256)
		for i := range group {
			line, err := json.Marshal(&group[i])
			if err != nil {
				return fmt.Errorf("failed to encode claim %s: %w", group[i].ID, err)
			}
			body = append(body, line...)
			body = append(body, '\n')
		}

		if err := w.uploader.Put(ctx, key, body, "application/x-ndjson"); err != nil {
			// Watermark untouched — the whole window is retried next cycle.
			return err
		}
		log.Printf("📤 [EXPORT] archived %d claim(s) to %s", len(group), key)
	}

	w.lastExport = mark
	return nil
}

func (w *ClaimsExportWorker) eventSlug(ctx context.Context, eventID string) string {
	event, err := w.catalog.FindEventByID(ctx, eventID)
	if err != nil {
		return eventID
	}
	return slug.Make(event.Name)
}
