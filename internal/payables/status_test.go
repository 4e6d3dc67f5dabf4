package payables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatuses_KnownValues(t *testing.T) {
	assert.Equal(t, StatusMeta{Label: "Bank Transfer", Color: "blue"}, FormatPaymentMethod("bank_transfer"))
	assert.Equal(t, StatusMeta{Label: "Active", Color: "green"}, FormatVendorStatus("active"))
	assert.Equal(t, StatusMeta{Label: "Paid", Color: "green"}, FormatBillStatus("paid"))
	assert.Equal(t, StatusMeta{Label: "Overdue", Color: "red"}, FormatBillStatus("overdue"))
	assert.Equal(t, StatusMeta{Label: "Draft", Color: "gray"}, FormatPOStatus("draft"))
}

func TestFormatStatuses_UnknownFallsBackToGray(t *testing.T) {
	for _, fn := range []func(string) StatusMeta{
		FormatPaymentMethod,
		FormatVendorStatus,
		FormatBillStatus,
		FormatPOStatus,
	} {
		got := fn("some_new_status")
		assert.Equal(t, "some_new_status", got.Label)
		assert.Equal(t, "gray", got.Color)
	}
}
