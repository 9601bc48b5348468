package service

import (
	"testing"

	"dalia-manager/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBlockerReasons(t *testing.T) {
	assert.Empty(t, blockerReasons(models.SuitcaseBlockers{}))

	reasons := blockerReasons(models.SuitcaseBlockers{
		ItemsInPossession: 3,
		ItemsSold:         1,
		PendingAcertos:    1,
	})
	assert.Equal(t, []string{
		"3 item(s) still with the reseller",
		"1 sold item(s) awaiting settlement",
		"1 pending settlement(s)",
	}, reasons)

	reasons = blockerReasons(models.SuitcaseBlockers{ItemsSold: 2})
	assert.Equal(t, []string{"2 sold item(s) awaiting settlement"}, reasons)
}

func TestValidPartnerStatus(t *testing.T) {
	assert.True(t, validPartnerStatus(models.PartnerStatusActive))
	assert.True(t, validPartnerStatus(models.PartnerStatusInactive))
	assert.False(t, validPartnerStatus("ativa"))
	assert.False(t, validPartnerStatus(""))
}
