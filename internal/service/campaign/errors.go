package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound             = errors.New("campaign not found")
	ErrInvalidCampaignState = errors.New("campaign is not in a dispatchable state")
	ErrNoEligibleRecipients = errors.New("campaign has no pending recipients")
	ErrNoSendingAccount     = errors.New("no sending account available")
	ErrSendNotFound         = errors.New("campaign send not found")
)
