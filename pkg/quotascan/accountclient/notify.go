package accountclient

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hpcfs/quotascan/pkg/quotascan"
)

// quotaNotification is the wire form of one exceedance notification.
type quotaNotification struct {
	Storage     string    `json:"storage"`
	Filesystem  string    `json:"filesystem"`
	Kind        string    `json:"kind"`
	EntityID    string    `json:"entity_id"`
	DisplayName string    `json:"display_name"`
	Exceed      string    `json:"exceed"`
	BlockUsage  float64   `json:"block_usage"`
	BlockSoft   float64   `json:"block_soft"`
	BlockHard   float64   `json:"block_hard"`
	FilesUsage  uint64    `json:"files_usage"`
	FilesSoft   uint64    `json:"files_soft"`
	FilesHard   uint64    `json:"files_hard"`
	Timestamp   time.Time `json:"timestamp"`
}

// Sink delivers exceedance notifications through the account service,
// which owns the actual user-facing messaging.
type Sink struct {
	client *Client
}

func NewSink(client *Client) *Sink {
	return &Sink{client: client}
}

func (s *Sink) Notify(ctx context.Context, n quotascan.Notification) error {
	payload := quotaNotification{
		Storage:     n.Storage,
		Filesystem:  n.Filesystem,
		Kind:        string(n.Kind),
		EntityID:    n.EntityID,
		DisplayName: n.DisplayName,
		Exceed:      string(n.Exceed),
		BlockUsage:  n.Record.BlockUsage,
		BlockSoft:   n.Record.BlockSoft,
		BlockHard:   n.Record.BlockHard,
		FilesUsage:  n.Record.FilesUsage,
		FilesSoft:   n.Record.FilesSoft,
		FilesHard:   n.Record.FilesHard,
		Timestamp:   time.Now(),
	}
	if err := s.client.Post(ctx, "api/quota/exceeded", payload, nil); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Str("entity", n.EntityID).Str("storage", n.Storage).
		Msg("Posted exceedance notification to account service")
	return nil
}
