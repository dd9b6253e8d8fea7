package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPayerHandle(t *testing.T) {
	valid := []string{"254712345678", "254000000000"}
	for _, handle := range valid {
		assert.True(t, ValidPayerHandle(handle), handle)
	}

	invalid := []string{
		"",
		"0712345678",      // local format, no country code
		"25471234567",     // eleven digits
		"2547123456789",   // thirteen digits
		"+254712345678",   // leading plus
		"254 712 345 678", // spaces
		"25471234567a",    // letter
		"255712345678",    // wrong country code
	}
	for _, handle := range invalid {
		assert.False(t, ValidPayerHandle(handle), handle)
	}
}

func TestAttemptRejectsMalformedHandle(t *testing.T) {
	s := NewSimulator(0, 1.0)

	_, err := s.Attempt(context.Background(), decimal.NewFromInt(50), "0712345678")
	require.Error(t, err)
}

func TestAttemptApprovedReferenceFormat(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	s := NewSimulator(0, 1.0)
	s.now = func() time.Time { return at }

	receipt, err := s.Attempt(context.Background(), decimal.NewFromInt(150), "254712345678")
	require.NoError(t, err)
	assert.True(t, receipt.Approved)
	assert.Equal(t, "MPESA1700000000000", receipt.Reference)
	assert.True(t, strings.HasPrefix(receipt.Reference, "MPESA"))
}

func TestAttemptDeclineIsNotAnError(t *testing.T) {
	s := NewSimulator(0, 0.0)

	receipt, err := s.Attempt(context.Background(), decimal.NewFromInt(50), "254712345678")
	require.NoError(t, err)
	assert.False(t, receipt.Approved)
	assert.Empty(t, receipt.Reference)
}

func TestAttemptRespectsContextDuringLatency(t *testing.T) {
	s := NewSimulator(time.Minute, 1.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := s.Attempt(ctx, decimal.NewFromInt(50), "254712345678")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
