package audit

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

var (
	_ Feed = NopFeed{}
	_ Feed = (*KafkaFeed)(nil)
)

// The server shutdown path closes the feed with a bounded context.
var _ interface{ Close(context.Context) error } = (*KafkaFeed)(nil)

func TestNopFeedPublish(t *testing.T) {
	ev := models.NewEvent(id.NewRecordID(), 1, time.Now().UTC(), "tester",
		models.JustifiedPayload{Text: "nota"})
	assert.NoError(t, NopFeed{}.Publish(context.Background(), ev))
}

func TestAuditRecordShape(t *testing.T) {
	ev := models.NewEvent(id.NewRecordID(), 3, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), "tester",
		models.ClassifiedPayload{
			Category:          id.CategoryEquipment,
			QualificationRate: decimal.NewFromInt(1),
			Source:            "rule",
			Confidence:        1,
		})

	payload, err := models.MarshalPayload(ev.Payload)
	assert.NoError(t, err)
	assert.NotEmpty(t, payload)
}
