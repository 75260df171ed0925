package pipeline

import "errors"

// ErrNoCampaign indicates a results folder without a campaign database.
var ErrNoCampaign = errors.New("pipeline: no campaign in results folder")
